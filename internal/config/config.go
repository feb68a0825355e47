package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/growmint/agent-gateway/pkg/utils"
)

// LoadConfig loads configuration from a YAML file. If the file doesn't
// exist, it returns the default configuration; environment overrides are
// applied either way.
func LoadConfig(path string, logger *logrus.Logger) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Warnf("Configuration file %s not found, using defaults", path)
		applyEnvironmentOverrides(config)
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand ${VAR} references so secrets stay out of the file itself.
	configString := utils.ExpandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(configString), config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvironmentOverrides(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validateConfig checks if the configuration is valid.
func validateConfig(config *AppConfig) error {
	if config.Agent.Name == "" {
		return fmt.Errorf("agent name cannot be empty")
	}
	if config.HTTP.Port <= 0 || config.HTTP.Port > 65535 {
		return fmt.Errorf("http port %d is out of range", config.HTTP.Port)
	}

	// Chain settings are optional as a pair; one without the other is a
	// half-configured reader and almost certainly a mistake.
	if (config.Chain.RPCURL == "") != (config.Chain.ContractAddress == "") {
		return fmt.Errorf("chain.rpc_url and chain.contract_address must be set together")
	}

	if config.Origins.StaticURL != "" && config.Origins.DynamicURL == "" {
		return fmt.Errorf("origins.dynamic_url must be set when origins.static_url is set (static failover target)")
	}

	return nil
}

// applyEnvironmentOverrides lets deployment environments override the file.
func applyEnvironmentOverrides(config *AppConfig) {
	if v := utils.GetEnv("AGENT_NAME", ""); v != "" {
		config.Agent.Name = v
	}
	if v := utils.GetEnv("AGENT_URL", ""); v != "" {
		config.Agent.URL = v
	}
	if v := utils.GetEnv("HTTP_PORT", ""); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			config.HTTP.Port = port
		}
	}
	if v := utils.GetEnv("CHAIN_RPC_URL", ""); v != "" {
		config.Chain.RPCURL = v
	}
	if v := utils.GetEnv("CONTRACT_ADDRESS", ""); v != "" {
		config.Chain.ContractAddress = v
	}
	if v := utils.GetEnv("CHAIN_ID", ""); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.Chain.ChainID = id
		}
	}
	if v := utils.GetEnv("STATIC_ORIGIN", ""); v != "" {
		config.Origins.StaticURL = v
	}
	if v := utils.GetEnv("DYNAMIC_ORIGIN", ""); v != "" {
		config.Origins.DynamicURL = v
	}
	if v := utils.GetEnv("FORWARD_URL", ""); v != "" {
		config.Origins.ForwardURL = v
	}
	if v := utils.GetEnv("PAYMENT_ADDRESS", ""); v != "" {
		config.Payment.Address = v
	}
	if v := utils.GetEnv("PAYMENT_NETWORK", ""); v != "" {
		config.Payment.Network = v
	}
}
