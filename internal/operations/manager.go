package operations

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Manager runs the registered steps of a pipeline against one
// OperationState at a time. It holds no per-run data, so one Manager can
// serve many collections concurrently.
type Manager struct {
	registry *Registry
	config   *Config
	tracer   *PipelineTracer
	logger   *slog.Logger
}

// NewManager creates a manager over registry
func NewManager(registry *Registry, config *Config, tracer *PipelineTracer, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if tracer == nil {
		tracer = NewNoopPipelineTracer()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		registry: registry,
		config:   config,
		tracer:   tracer,
		logger:   logger.With(slog.String("component", "operations_manager")),
	}
}

// RegisterStage registers a Step with the operation
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// Execute runs every registered step against state in dependency order
func (m *Manager) Execute(ctx context.Context, state *OperationState) error {
	steps, err := m.registry.GetDependencyOrder()
	if err != nil {
		err = NewFatalError("failed to get dependency order", err)
		m.logOperationError(ctx, state.ID, err)
		state.Fail(err)
		return err
	}

	for _, step := range steps {
		state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
	}

	m.logOperationStart(ctx, state.ID, len(steps))
	state.Start()

	err = m.executeSequential(ctx, state, steps)
	switch {
	case err == nil:
		state.Complete()
	case GetErrorType(err) == ErrorTypeCancellation:
		state.Cancel(err)
	default:
		state.Fail(err)
	}

	m.logOperationComplete(ctx, state.ID, state.Duration(), string(state.CurrentStatus()))
	return err
}

// executeSequential executes steps one by one
func (m *Manager) executeSequential(ctx context.Context, state *OperationState, steps []Step) error {
	for i, step := range steps {
		if ctx.Err() != nil {
			m.logger.WarnContext(ctx, "operation_cancelled",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()))
			return NewCancellationError(step.ID())
		}

		stepState := state.GetStage(step.ID())
		if stepState != nil && stepState.CurrentStatus() == StepStatusSkipped {
			m.logger.InfoContext(ctx, "stage_skipped",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.Int("stage_number", i+1),
				slog.Int("total_stages", len(steps)))
			continue
		}

		if err := m.executeStage(ctx, state, step); err != nil {
			m.logStageError(ctx, state.ID, step.ID(), err)
			if !m.config.ContinueOnError {
				m.skipDependentStages(state, steps, step.ID())
				return err
			}
			m.logger.WarnContext(ctx, "stage_failed_continuing",
				slog.String("operation_id", state.ID),
				slog.String("step", step.ID()),
				slog.String("error", err.Error()))
		}
	}
	return nil
}

// executeStage executes a single Step with retry logic
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError("step state not found", nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		stepState.Skip(fmt.Sprintf("dependencies not met: %v", err))
		return err
	}
	if err := step.Validate(state); err != nil {
		stepState.Skip(fmt.Sprintf("validation failed: %v", err))
		return NewValidationError(step.ID(), err.Error())
	}

	timeout := m.config.GetStageTimeout(step.ID())
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	retryConfig := m.config.RetryConfig
	if retryConfig.MaxAttempts < 1 {
		retryConfig.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retryConfig.MaxAttempts; attempt++ {
		stepState.Start()
		m.logStageStart(ctx, state.ID, step.ID(), attempt)

		spanCtx, span := m.tracer.TraceStep(stageCtx, state.ID, step.ID())
		start := time.Now()
		err := step.Execute(spanCtx, state)
		duration := time.Since(start)
		m.tracer.RecordStep(spanCtx, span, step.ID(), duration, err)
		span.End()

		if err == nil {
			stepState.Complete()
			m.logStageComplete(ctx, state.ID, step.ID(), duration)
			return nil
		}
		lastErr = err

		if !IsRetryable(err) || attempt >= retryConfig.MaxAttempts {
			break
		}

		delay := m.calculateRetryDelay(attempt, retryConfig)
		m.logger.WarnContext(ctx, "stage_retry",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", retryConfig.MaxAttempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-stageCtx.Done():
			timeoutErr := NewTimeoutError(step.ID(), timeout.String())
			stepState.Fail(timeoutErr)
			return timeoutErr
		}
	}

	stepState.Fail(lastErr)
	return WrapError(lastErr, step.ID(), "")
}

// skipDependentStages marks every step downstream of the failed one as skipped
func (m *Manager) skipDependentStages(state *OperationState, steps []Step, failedStageID string) {
	for _, step := range steps {
		for _, dep := range step.GetDependencies() {
			if dep != failedStageID {
				continue
			}
			stepState := state.GetStage(step.ID())
			if stepState != nil && stepState.CurrentStatus() == StepStatusPending {
				stepState.Skip(fmt.Sprintf("dependency %s failed", failedStageID))
				m.skipDependentStages(state, steps, step.ID())
			}
			break
		}
	}
}

// checkDependencies verifies that all dependencies completed
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			return NewDependencyError(step.ID(), dep, "dependency not found")
		}
		if status := depState.CurrentStatus(); status != StepStatusCompleted {
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency %s not completed (status: %s)", dep, status))
		}
	}
	return nil
}

// calculateRetryDelay grows the delay geometrically, capped at MaxDelay
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	delay := config.InitialDelay
	for i := 1; i < attempt; i++ {
		delay = time.Duration(float64(delay) * config.Multiplier)
	}
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}
