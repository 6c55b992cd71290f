package llm

import (
	"context"
)

// MockRunner is a configurable mock for testing the agent flow without
// a live provider. Set RunFunc to control behavior.
type MockRunner struct {
	// RunFunc is called when Run is invoked. If nil, Run returns
	// "mock answer" and nil error.
	RunFunc func(ctx context.Context, instructions string, tools []ToolDefinition, executor ToolExecutor) (string, error)

	// RunCalls records the instructions and tool names of each Run call.
	RunCalls []MockRunCall
}

// MockRunCall records a call to Run.
type MockRunCall struct {
	Instructions string
	ToolNames    []string
}

// NewMockRunner creates a new mock runner.
func NewMockRunner() *MockRunner {
	return &MockRunner{}
}

// Run implements Runner.
func (m *MockRunner) Run(ctx context.Context, instructions string, tools []ToolDefinition, executor ToolExecutor) (string, error) {
	names := make([]string, len(tools))
	for i, tool := range tools {
		names[i] = tool.Name
	}
	m.RunCalls = append(m.RunCalls, MockRunCall{Instructions: instructions, ToolNames: names})

	if m.RunFunc != nil {
		return m.RunFunc(ctx, instructions, tools, executor)
	}
	return "mock answer", nil
}

// Reset clears call tracking.
func (m *MockRunner) Reset() {
	m.RunCalls = nil
}

// Ensure MockRunner implements Runner at compile time.
var _ Runner = (*MockRunner)(nil)

// MockToolExecutor is a configurable mock for testing tool execution.
type MockToolExecutor struct {
	// ExecuteToolFunc is called when ExecuteTool is invoked.
	// If nil, returns empty string and nil error.
	ExecuteToolFunc func(ctx context.Context, name string, arguments string) (string, error)

	// ExecuteToolCalls records each call.
	ExecuteToolCalls []MockToolCall
}

// MockToolCall records a call to ExecuteTool.
type MockToolCall struct {
	Name      string
	Arguments string
}

// NewMockToolExecutor creates a new mock tool executor.
func NewMockToolExecutor() *MockToolExecutor {
	return &MockToolExecutor{
		ExecuteToolCalls: []MockToolCall{},
	}
}

// ExecuteTool implements ToolExecutor.
func (m *MockToolExecutor) ExecuteTool(ctx context.Context, name string, arguments string) (string, error) {
	m.ExecuteToolCalls = append(m.ExecuteToolCalls, MockToolCall{Name: name, Arguments: arguments})
	if m.ExecuteToolFunc != nil {
		return m.ExecuteToolFunc(ctx, name, arguments)
	}
	return `{"success": true}`, nil
}

// Reset clears call tracking.
func (m *MockToolExecutor) Reset() {
	m.ExecuteToolCalls = []MockToolCall{}
}

// Ensure MockToolExecutor implements ToolExecutor at compile time.
var _ ToolExecutor = (*MockToolExecutor)(nil)

// MockRunnerFactory is a configurable mock for testing session setup.
type MockRunnerFactory struct {
	// CreateRunnerFunc is called when CreateRunner is invoked.
	// If nil, returns MockRunner.
	CreateRunnerFunc func(apiKey string) (Runner, error)

	// MockRunner is the default runner returned if CreateRunnerFunc is not set.
	MockRunner *MockRunner

	// CreateRunnerCalls counts CreateRunner invocations.
	CreateRunnerCalls int
}

// NewMockRunnerFactory creates a new mock factory.
func NewMockRunnerFactory() *MockRunnerFactory {
	return &MockRunnerFactory{
		MockRunner: NewMockRunner(),
	}
}

// CreateRunner implements RunnerFactory.
func (f *MockRunnerFactory) CreateRunner(apiKey string) (Runner, error) {
	f.CreateRunnerCalls++
	if f.CreateRunnerFunc != nil {
		return f.CreateRunnerFunc(apiKey)
	}
	return f.MockRunner, nil
}

// Ensure MockRunnerFactory implements RunnerFactory at compile time.
var _ RunnerFactory = (*MockRunnerFactory)(nil)
