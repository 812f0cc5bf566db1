package server

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/usecase"
)

// Version is reported to MCP clients
const Version = "v1.0.0"

// defaultListLimit bounds list_codes when no limit is given
const defaultListLimit = 20

// MCPServer exposes rules, the audit log and monitor state as MCP tools
type MCPServer struct {
	server   *mcp.Server
	rules    *usecase.RuleUsecase
	audit    *usecase.AuditUsecase
	settings *usecase.SettingsUsecase
	matcher  *usecase.Matcher
	logger   *zap.Logger
}

// NewMCPServer creates a new MCP server and registers its tools
func NewMCPServer(
	rules *usecase.RuleUsecase,
	audit *usecase.AuditUsecase,
	settings *usecase.SettingsUsecase,
	matcher *usecase.Matcher,
	logger *zap.Logger,
) *MCPServer {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &MCPServer{
		server: mcp.NewServer(&mcp.Implementation{
			Name:    "automessage",
			Version: Version,
		}, nil),
		rules:    rules,
		audit:    audit,
		settings: settings,
		matcher:  matcher,
		logger:   logger,
	}
	s.registerTools()
	return s
}

// Run serves over stdio until the client disconnects or ctx is done
func (s *MCPServer) Run(ctx context.Context) error {
	s.logger.Info("mcp server listening on stdio")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect serves a single session over t
func (s *MCPServer) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func (s *MCPServer) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_rules",
		Description: "List the code extraction rules in match order. The first enabled rule that matches a message wins.",
	}, s.handleListRules)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "test_rule",
		Description: "Try a pattern against sample text without saving it. Patterns support lookbehind, lookahead and inline flags such as (?i).",
	}, s.handleTestRule)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_rule_enabled",
		Description: "Enable or disable a rule by id.",
	}, s.handleSetRuleEnabled)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_codes",
		Description: "List recently extracted codes, newest first.",
	}, s.handleListCodes)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "latest_code",
		Description: "Get the most recently extracted code.",
	}, s.handleLatestCode)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "monitor_status",
		Description: "Report whether monitoring is enabled, how many rules are active and how many codes are logged.",
	}, s.handleMonitorStatus)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "set_monitoring",
		Description: "Turn message monitoring on or off. A running daemon picks the change up within a second.",
	}, s.handleSetMonitoring)
}

// RuleView is a rule as returned to MCP clients
type RuleView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Pattern     string `json:"pattern"`
	Enabled     bool   `json:"enabled"`
	Description string `json:"description,omitempty"`
}

func ruleView(r domain.Rule) RuleView {
	return RuleView{
		ID:          r.ID,
		Name:        r.Name,
		Pattern:     r.Pattern,
		Enabled:     r.IsEnabled,
		Description: r.Description,
	}
}

// CodeView is an audit entry as returned to MCP clients
type CodeView struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	Rule      string `json:"rule"`
	Timestamp string `json:"timestamp"`
}

func codeView(e domain.AuditEntry) CodeView {
	return CodeView{
		ID:        e.ID,
		Code:      e.MatchedText,
		Message:   e.SourceMessageText,
		Rule:      e.RuleName,
		Timestamp: e.Timestamp.Format(time.RFC3339),
	}
}

// ============ Rules ============

// ListRulesInput is empty - no input needed
type ListRulesInput struct{}

// ListRulesOutput contains the rule list
type ListRulesOutput struct {
	Rules []RuleView `json:"rules"`
}

func (s *MCPServer) handleListRules(ctx context.Context, req *mcp.CallToolRequest, input ListRulesInput) (*mcp.CallToolResult, ListRulesOutput, error) {
	rules := s.rules.Snapshot()
	out := ListRulesOutput{Rules: make([]RuleView, 0, len(rules))}
	for _, r := range rules {
		out.Rules = append(out.Rules, ruleView(r))
	}
	return nil, out, nil
}

// TestRuleInput is the input for test_rule
type TestRuleInput struct {
	Pattern string `json:"pattern" jsonschema:"The pattern to try"`
	Text    string `json:"text" jsonschema:"Sample message text"`
}

// TestRuleOutput is the result of trying a pattern
type TestRuleOutput struct {
	Matched bool   `json:"matched"`
	Text    string `json:"text,omitempty"`
	Index   int    `json:"index,omitempty"`
	Invalid bool   `json:"invalid,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *MCPServer) handleTestRule(ctx context.Context, req *mcp.CallToolRequest, input TestRuleInput) (*mcp.CallToolResult, TestRuleOutput, error) {
	res := s.matcher.TestPattern(input.Pattern, input.Text)
	out := TestRuleOutput{
		Matched: res.Matched,
		Text:    res.Text,
		Index:   res.Index,
		Invalid: res.Invalid(),
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return nil, out, nil
}

// SetRuleEnabledInput is the input for set_rule_enabled
type SetRuleEnabledInput struct {
	ID      string `json:"id" jsonschema:"Rule id from list_rules"`
	Enabled bool   `json:"enabled" jsonschema:"Whether the rule takes part in matching"`
}

// SetRuleEnabledOutput returns the updated rule
type SetRuleEnabledOutput struct {
	Rule RuleView `json:"rule"`
}

func (s *MCPServer) handleSetRuleEnabled(ctx context.Context, req *mcp.CallToolRequest, input SetRuleEnabledInput) (*mcp.CallToolResult, SetRuleEnabledOutput, error) {
	rule, err := s.rules.SetEnabled(ctx, input.ID, input.Enabled)
	if err != nil {
		return nil, SetRuleEnabledOutput{}, err
	}
	s.logger.Info("rule toggled over mcp", zap.String("rule", rule.Name), zap.Bool("enabled", rule.IsEnabled))
	return nil, SetRuleEnabledOutput{Rule: ruleView(rule)}, nil
}

// ============ Codes ============

// ListCodesInput is the input for list_codes
type ListCodesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Maximum number of entries, default 20"`
}

// ListCodesOutput contains audit entries, newest first
type ListCodesOutput struct {
	Codes []CodeView `json:"codes"`
	Total int        `json:"total"`
}

func (s *MCPServer) handleListCodes(ctx context.Context, req *mcp.CallToolRequest, input ListCodesInput) (*mcp.CallToolResult, ListCodesOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	entries := s.audit.List(limit)
	out := ListCodesOutput{Codes: make([]CodeView, 0, len(entries)), Total: s.audit.Len()}
	for _, e := range entries {
		out.Codes = append(out.Codes, codeView(e))
	}
	return nil, out, nil
}

// LatestCodeInput is empty - no input needed
type LatestCodeInput struct{}

// LatestCodeOutput holds the newest entry when one exists
type LatestCodeOutput struct {
	Found bool      `json:"found"`
	Code  *CodeView `json:"code,omitempty"`
}

func (s *MCPServer) handleLatestCode(ctx context.Context, req *mcp.CallToolRequest, input LatestCodeInput) (*mcp.CallToolResult, LatestCodeOutput, error) {
	entry, ok := s.audit.Latest()
	if !ok {
		return nil, LatestCodeOutput{}, nil
	}
	v := codeView(entry)
	return nil, LatestCodeOutput{Found: true, Code: &v}, nil
}

// ============ Monitor ============

// MonitorStatusInput is empty - no input needed
type MonitorStatusInput struct{}

// MonitorStatusOutput summarizes monitor state
type MonitorStatusOutput struct {
	MonitoringEnabled bool    `json:"monitoring_enabled"`
	EnabledRules      int     `json:"enabled_rules"`
	TotalRules        int     `json:"total_rules"`
	LoggedCodes       int     `json:"logged_codes"`
	AutoPaste         bool    `json:"auto_paste"`
	PasteDelaySeconds float64 `json:"paste_delay_seconds"`
}

func (s *MCPServer) handleMonitorStatus(ctx context.Context, req *mcp.CallToolRequest, input MonitorStatusInput) (*mcp.CallToolResult, MonitorStatusOutput, error) {
	rules := s.rules.Snapshot()
	snap := s.settings.Snapshot()
	return nil, MonitorStatusOutput{
		MonitoringEnabled: snap.Monitoring,
		EnabledRules:      rules.EnabledCount(),
		TotalRules:        len(rules),
		LoggedCodes:       s.audit.Len(),
		AutoPaste:         snap.Action.AutoPasteEnabled,
		PasteDelaySeconds: snap.Action.DelaySeconds,
	}, nil
}

// SetMonitoringInput is the input for set_monitoring
type SetMonitoringInput struct {
	Enabled bool `json:"enabled" jsonschema:"Whether new messages are scanned"`
}

// SetMonitoringOutput echoes the stored state
type SetMonitoringOutput struct {
	MonitoringEnabled bool `json:"monitoring_enabled"`
}

func (s *MCPServer) handleSetMonitoring(ctx context.Context, req *mcp.CallToolRequest, input SetMonitoringInput) (*mcp.CallToolResult, SetMonitoringOutput, error) {
	if err := s.settings.SetMonitoring(input.Enabled); err != nil {
		return nil, SetMonitoringOutput{}, err
	}
	return nil, SetMonitoringOutput{MonitoringEnabled: s.settings.Monitoring()}, nil
}
