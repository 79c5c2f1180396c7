package usecase

import (
	"context"
	"sync"

	"github.com/karimbenali/docpipe/internal/core/domain"
	"github.com/karimbenali/docpipe/internal/core/ports"
)

// ComponentHealthUseCase probes the external collaborators in parallel.
type ComponentHealthUseCase struct {
	ocr ports.OCRClient
	llm ports.LLMClient
}

func NewComponentHealthUseCase(ocr ports.OCRClient, llm ports.LLMClient) *ComponentHealthUseCase {
	return &ComponentHealthUseCase{ocr: ocr, llm: llm}
}

func (uc *ComponentHealthUseCase) CheckComponents(ctx context.Context) map[string]domain.ComponentHealth {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		report = make(map[string]domain.ComponentHealth, 2)
	)

	probe := func(name string, check func(context.Context) domain.ComponentHealth) {
		defer wg.Done()
		health := check(ctx)
		mu.Lock()
		report[name] = health
		mu.Unlock()
	}

	wg.Add(2)
	go probe("ocr", uc.ocr.HealthCheck)
	go probe("llm", uc.llm.HealthCheck)
	wg.Wait()

	return report
}
