package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/ludo-technologies/bcflow/domain"
	"github.com/ludo-technologies/bcflow/internal/bytecode"
	"github.com/ludo-technologies/bcflow/internal/flow"
	"github.com/ludo-technologies/bcflow/internal/logging"
	"github.com/ludo-technologies/bcflow/internal/version"
)

// StructureServiceImpl implements the StructureService interface
type StructureServiceImpl struct {
	reader   domain.MethodFileReader
	cache    domain.ResultCache
	executor domain.ParallelExecutor
	progress domain.ProgressManager
	logger   *zap.SugaredLogger
}

// NewStructureService creates a new structure service. The cache, executor
// and progress manager are optional.
func NewStructureService(reader domain.MethodFileReader, logger *zap.SugaredLogger) *StructureServiceImpl {
	if logger == nil {
		logger = logging.Nop()
	}
	return &StructureServiceImpl{
		reader: reader,
		logger: logger,
	}
}

// SetCache sets the result cache
func (s *StructureServiceImpl) SetCache(cache domain.ResultCache) {
	s.cache = cache
}

// SetExecutor sets the executor used to structure files in parallel
func (s *StructureServiceImpl) SetExecutor(executor domain.ParallelExecutor) {
	s.executor = executor
}

// SetProgress sets the progress manager
func (s *StructureServiceImpl) SetProgress(progress domain.ProgressManager) {
	s.progress = progress
}

type fileOutcome struct {
	results []domain.MethodResult
	err     error
}

// Structure structures every method of every file in req.Paths. Files that
// cannot be read or decoded are reported in Errors and skipped.
func (s *StructureServiceImpl) Structure(ctx context.Context, req domain.StructureRequest) (*domain.StructureResponse, error) {
	files := req.Paths
	outcomes := make([]fileOutcome, len(files))

	var processed int32
	if s.progress != nil {
		s.progress.Initialize(len(files))
		s.progress.Start()
	}

	tasks := make([]domain.ExecutableTask, len(files))
	for i, path := range files {
		tasks[i] = NewSimpleTask(path, true, func(ctx context.Context) (interface{}, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results, err := s.StructureFile(ctx, path, req)
			outcomes[i] = fileOutcome{results: results, err: err}

			n := atomic.AddInt32(&processed, 1)
			if s.progress != nil {
				s.progress.Update(int(n), len(files))
			}
			// Cancellation is the only failure that stops the run
			if err != nil && ctx.Err() != nil {
				return nil, err
			}
			return nil, nil
		})
	}

	err := s.execute(ctx, req, tasks)
	if s.progress != nil {
		s.progress.Complete(err == nil)
	}
	if err != nil {
		return nil, fmt.Errorf("structuring cancelled: %w", err)
	}

	response := &domain.StructureResponse{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Version:     version.Version,
	}
	for i, outcome := range outcomes {
		if outcome.err != nil {
			s.logger.Warnw("file skipped", "file", files[i], "error", outcome.err)
			response.Errors = append(response.Errors, fmt.Sprintf("[%s] %v", files[i], outcome.err))
			continue
		}
		if len(outcome.results) == 0 {
			response.Warnings = append(response.Warnings, fmt.Sprintf("[%s] no methods found", files[i]))
		}
		response.Summary.FilesProcessed++
		for _, r := range outcome.results {
			response.Methods = append(response.Methods, r)
			response.Summary.Add(r)
		}
	}

	return response, nil
}

func (s *StructureServiceImpl) execute(ctx context.Context, req domain.StructureRequest, tasks []domain.ExecutableTask) error {
	executor := s.executor
	if executor == nil {
		executor = NewParallelExecutor()
	}
	executor.SetMaxConcurrency(req.MaxGoroutines)
	if req.Timeout > 0 {
		executor.SetTimeout(req.Timeout)
	}
	return executor.Execute(ctx, tasks)
}

// StructureFile structures the methods of a single method file in file order.
func (s *StructureServiceImpl) StructureFile(ctx context.Context, filePath string, req domain.StructureRequest) ([]domain.MethodResult, error) {
	content, err := s.reader.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil {
		key = s.cache.Key(content, req.Engine)
		if cached, ok := s.cache.Get(key); ok {
			s.logger.Debugw("cache hit", "file", filePath)
			for i := range cached {
				cached[i].File = filePath
			}
			return cached, nil
		}
	}

	file, err := bytecode.DecodeBytes(content)
	if err != nil {
		return nil, domain.NewParseError(filePath, err)
	}

	results := make([]domain.MethodResult, 0, len(file.Methods))
	for _, m := range file.Methods {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, s.structureMethod(filePath, m, req.Engine))
	}

	if s.cache != nil {
		if err := s.cache.Put(key, results); err != nil {
			s.logger.Warnw("failed to cache results", "file", filePath, "error", err)
		}
	}
	return results, nil
}

func (s *StructureServiceImpl) structureMethod(filePath string, m *bytecode.Method, opts domain.EngineOptions) domain.MethodResult {
	name := m.QualifiedName()
	log := logging.Method(s.logger, filePath, name)

	result := domain.MethodResult{File: filePath, Method: name}

	res, dump, err := structureSafely(m, opts, log)
	result.Dump = dump
	if res != nil {
		for _, d := range res.Diagnostics {
			result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
				Kind:    d.Kind.String(),
				Addr:    d.Addr,
				Message: d.Message,
			})
		}
		result.Stats = StatsFromFlow(res.Stats)
	}

	switch {
	case err != nil:
		structErr := StructuringError(name, err)
		code, _ := domain.ErrorCode(structErr)
		result.Status = domain.StatusFailed
		result.ErrorCode = code
		result.Error = err.Error()
		log.Infow("structuring failed", "code", code, "error", err)
	case len(result.Diagnostics) > 0:
		result.Status = domain.StatusPartial
	default:
		result.Status = domain.StatusStructured
	}
	return result
}

// structureSafely runs the engine on one method and renders its dump. A panic
// becomes the method's error so the other methods of the batch still run.
func structureSafely(m *bytecode.Method, opts domain.EngineOptions, log *zap.SugaredLogger) (res *flow.Result, dump string, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorw("structuring panicked", "panic", r)
			err = fmt.Errorf("structuring panicked: %v", r)
		}
	}()

	res, err = flow.Structure(m, FlowOptions(opts, log))
	if res != nil && res.Root != nil {
		dump = flow.DumpBlock(res.Root, flow.DumpOptions{
			Declarations: opts.Declarations && err == nil,
			Color:        opts.Color,
		})
	}
	return res, dump, err
}

// FlowOptions converts engine options for the structuring engine.
func FlowOptions(opts domain.EngineOptions, logger *zap.SugaredLogger) flow.Options {
	return flow.Options{
		Logger:            logger,
		MaxSteps:          opts.MaxSteps,
		CheckEveryStep:    opts.CheckEveryStep,
		NegateConditions:  opts.NegateConditions,
		CombineConditions: opts.CombineConditions,
		CreateForLoops:    opts.CreateForLoops,
		RemoveStackOps:    opts.RemoveStackOps,
	}
}

// StatsFromFlow copies engine counters into the domain type.
func StatsFromFlow(st flow.Stats) domain.MethodStats {
	return domain.MethodStats{
		Regions:     st.Regions,
		T1:          st.T1,
		T2:          st.T2,
		Steps:       st.Steps,
		Breaks:      st.Breaks,
		Continues:   st.Continues,
		Trampolines: st.Trampolines,
		Handlers:    st.Handlers,
	}
}

var kindCodes = map[flow.ErrorKind]string{
	flow.StructuralInconsistency: domain.ErrCodeStructuralInconsistency,
	flow.UnrecognizedIdiom:       domain.ErrCodeUnrecognizedIdiom,
	flow.IllegalEdgeTopology:     domain.ErrCodeIllegalEdgeTopology,
}

// StructuringError wraps an engine error into a DomainError carrying the
// code of its kind. Errors of no known kind become analysis errors.
func StructuringError(method string, err error) error {
	if err == nil {
		return nil
	}
	if kind, ok := flow.KindOf(err); ok {
		return domain.NewStructuringError(kindCodes[kind], method, err)
	}
	return domain.NewAnalysisError(fmt.Sprintf("failed to structure %s", method), err)
}
