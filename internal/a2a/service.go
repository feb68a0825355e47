package a2a

import (
	"github.com/sirupsen/logrus"

	"github.com/growmint/agent-gateway/internal/jsonrpc"
)

// DefaultSkill is used by message/send when the caller names no skill.
const DefaultSkill = "grow-status"

// skillDef pairs a card entry with its canned response. The card's skill
// list and the message/send response table are both generated from this one
// slice, so a skill cannot appear in one and not the other.
type skillDef struct {
	AgentSkill
	response string
}

var skillDefs = []skillDef{
	{
		AgentSkill: AgentSkill{
			ID:          "grow-status",
			Name:        "Grow Status",
			Description: "Reports the current cultivation telemetry snapshot: temperature, humidity, VPD and canopy health.",
			Tags:        []string{"cultivation", "telemetry"},
		},
		response: "Grow room nominal: canopy healthy, environment within target band. Live telemetry is published per milestone at /metadata/{tokenId}.",
	},
	{
		AgentSkill: AgentSkill{
			ID:          "trade-signal",
			Name:        "Trade Signal",
			Description: "Summarizes the trading agent's current posture and most recent position changes.",
			Tags:        []string{"trading", "defi"},
		},
		response: "Trading desk is active. Position summaries are produced by the backend agent and settle on the configured network.",
	},
	{
		AgentSkill: AgentSkill{
			ID:          "milestone-report",
			Name:        "Milestone Report",
			Description: "Describes the latest minted grow milestone NFT and how to fetch its on-chain metadata.",
			Tags:        []string{"nft", "milestones"},
		},
		response: "Milestones are minted on chain as the grow progresses. Query /metadata for collection info and /metadata/{tokenId} for a single record.",
	},
}

// Skills returns the card skill list, one entry per known skill.
func Skills() []AgentSkill {
	skills := make([]AgentSkill, len(skillDefs))
	for i, def := range skillDefs {
		skills[i] = def.AgentSkill
	}
	return skills
}

// SkillResponses returns the message/send response table keyed by skill id.
func SkillResponses() map[string]string {
	responses := make(map[string]string, len(skillDefs))
	for _, def := range skillDefs {
		responses[def.ID] = def.response
	}
	return responses
}

// Service implements the A2A method table on the shared dispatcher.
type Service struct {
	card       *AgentCard
	tasks      *TaskManager
	responses  map[string]string
	dispatcher *jsonrpc.Dispatcher
	logger     *logrus.Logger
}

func NewService(card *AgentCard, logger *logrus.Logger) *Service {
	if logger == nil {
		logger = logrus.New()
	}
	s := &Service{
		card:      card,
		tasks:     NewTaskManager(logger),
		responses: SkillResponses(),
		logger:    logger,
	}

	d := jsonrpc.NewDispatcher(logger)
	d.Register("message/send", s.handleMessageSend)
	d.Register("tasks/get", s.handleTasksGet)
	d.Register("tasks/cancel", s.handleTasksCancel)
	d.Register("agent/info", s.handleAgentInfo)
	s.dispatcher = d

	return s
}

// Card returns the agent card served on discovery routes.
func (s *Service) Card() *AgentCard {
	return s.card
}

// Tasks exposes the warm-instance task cache.
func (s *Service) Tasks() *TaskManager {
	return s.tasks
}

// Dispatch routes one raw JSON-RPC body.
func (s *Service) Dispatch(body []byte) *jsonrpc.Response {
	return s.dispatcher.Dispatch(body)
}

func (s *Service) handleMessageSend(params map[string]interface{}, id interface{}) (interface{}, *jsonrpc.Error) {
	message, _ := params["message"].(string)
	skill, _ := params["skill"].(string)
	if message == "" && skill == "" {
		return nil, jsonrpc.InvalidParams("at least one of 'message' or 'skill' is required")
	}
	if skill == "" {
		skill = DefaultSkill
	}

	response, known := s.responses[skill]
	if !known {
		// A well-formed request for a nonexistent skill is not a protocol
		// error; the request simply cannot be served.
		task := s.tasks.Create(skill, StatusError, "unknown skill: "+skill)
		return map[string]interface{}{
			"taskId": task.ID,
			"status": task.Status,
			"output": task.Output,
		}, nil
	}

	task := s.tasks.Create(skill, StatusCompleted, response)
	s.logger.Infof("[TaskID: %s] Skill '%s' invoked", task.ID, skill)
	return map[string]interface{}{
		"taskId": task.ID,
		"status": task.Status,
		"output": task.Output,
	}, nil
}

func (s *Service) handleTasksGet(params map[string]interface{}, id interface{}) (interface{}, *jsonrpc.Error) {
	taskID, _ := params["taskId"].(string)
	if taskID == "" {
		return nil, jsonrpc.InvalidParams("taskId is required")
	}

	if task, ok := s.tasks.Get(taskID); ok {
		return map[string]interface{}{
			"taskId":  task.ID,
			"status":  task.Status,
			"message": task.Output,
		}, nil
	}

	// Nothing is persisted across instances, so history for an unknown id
	// cannot be recovered; the status is synthesized, not recalled.
	return map[string]interface{}{
		"taskId":  taskID,
		"status":  StatusCompleted,
		"message": "Task completed. Detailed task history is not retained by this gateway.",
	}, nil
}

func (s *Service) handleTasksCancel(params map[string]interface{}, id interface{}) (interface{}, *jsonrpc.Error) {
	taskID, _ := params["taskId"].(string)
	if taskID == "" {
		return nil, jsonrpc.InvalidParams("taskId is required")
	}

	task, err := s.tasks.Cancel(taskID)
	switch {
	case err == nil:
		return map[string]interface{}{
			"taskId": task.ID,
			"status": task.Status,
		}, nil
	case task != nil:
		// Warm task already terminal: report its real state.
		return map[string]interface{}{
			"taskId":  task.ID,
			"status":  task.Status,
			"message": "task is already in a terminal state",
		}, nil
	default:
		return map[string]interface{}{
			"taskId": taskID,
			"status": StatusCancelled,
		}, nil
	}
}

func (s *Service) handleAgentInfo(params map[string]interface{}, id interface{}) (interface{}, *jsonrpc.Error) {
	return s.card, nil
}
