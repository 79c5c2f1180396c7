package usecase

import (
	"context"
	"testing"

	"github.com/karimbenali/docpipe/internal/core/domain"
)

type unhealthyOCR struct {
	scriptedOCR
}

func (o *unhealthyOCR) HealthCheck(ctx context.Context) domain.ComponentHealth {
	return domain.ComponentHealth{Status: domain.HealthUnhealthy, Error: "connection refused"}
}

func TestCheckComponentsReportsEachCollaborator(t *testing.T) {
	uc := NewComponentHealthUseCase(&unhealthyOCR{}, &scriptedLLM{})

	report := uc.CheckComponents(context.Background())
	if len(report) != 2 {
		t.Fatalf("report = %+v", report)
	}
	if report["ocr"].Status != domain.HealthUnhealthy || report["ocr"].Error != "connection refused" {
		t.Fatalf("ocr = %+v", report["ocr"])
	}
	if report["llm"].Status != domain.HealthHealthy {
		t.Fatalf("llm = %+v", report["llm"])
	}
}
