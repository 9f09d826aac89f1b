package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func resetHealthChecker() {
	healthChecker = &HealthChecker{
		components: make(map[string]ComponentHealth),
		startTime:  time.Now(),
	}
}

func TestRegisterComponent(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("test-component", StatusHealthy, "running")

	if len(healthChecker.components) != 1 {
		t.Errorf("expected 1 component, got %d", len(healthChecker.components))
	}

	comp := healthChecker.components["test-component"]
	if comp.Status != StatusHealthy {
		t.Errorf("expected healthy status, got %s", comp.Status)
	}

	if comp.Message != "running" {
		t.Errorf("expected message 'running', got '%s'", comp.Message)
	}
}

func TestGetHealth_AllHealthy(t *testing.T) {
	resetHealthChecker()
	healthChecker.version = "1.0.0"

	RegisterComponent("storage", StatusHealthy, "")
	RegisterComponent("consensus", StatusHealthy, "")

	health := GetHealth()

	if health.Status != StatusHealthy {
		t.Errorf("expected status 'healthy', got '%s'", health.Status)
	}

	if len(health.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(health.Components))
	}

	if health.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got '%s'", health.Version)
	}
}

func TestGetHealth_DegradedDoesNotEscalateToUnhealthy(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("storage", StatusHealthy, "")
	RegisterComponent("token_budget", StatusDegraded, "consumed 90% of allocated budget")

	health := GetHealth()

	if health.Status != StatusDegraded {
		t.Errorf("expected overall status 'degraded', got '%s'", health.Status)
	}

	if health.Components["token_budget"] != "degraded: consumed 90% of allocated budget" {
		t.Errorf("unexpected token_budget status: %s", health.Components["token_budget"])
	}
}

func TestGetHealth_OneUnhealthyDominatesDegraded(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("storage", StatusDegraded, "slow disk")
	RegisterComponent("consensus", StatusUnhealthy, "not connected")

	health := GetHealth()

	if health.Status != StatusUnhealthy {
		t.Errorf("expected status 'unhealthy', got '%s'", health.Status)
	}

	if health.Components["consensus"] != "unhealthy: not connected" {
		t.Errorf("unexpected consensus status: %s", health.Components["consensus"])
	}
}

func TestGetReadiness_AllReady(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("storage", StatusHealthy, "")
	RegisterComponent("swarm", StatusHealthy, "")
	RegisterComponent("consensus", StatusHealthy, "")

	readiness := GetReadiness()

	if readiness.Status != StatusHealthy {
		t.Errorf("expected status 'healthy', got '%s'", readiness.Status)
	}
}

func TestGetReadiness_MissingCriticalComponent(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("storage", StatusHealthy, "")
	// swarm and consensus not registered

	readiness := GetReadiness()

	if readiness.Status != StatusUnhealthy {
		t.Errorf("expected status 'unhealthy', got '%s'", readiness.Status)
	}

	if readiness.Message == "" {
		t.Error("expected message explaining why not ready")
	}
}

func TestGetReadiness_DegradedCriticalComponentBlocksReadiness(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("storage", StatusHealthy, "")
	RegisterComponent("swarm", StatusHealthy, "")
	RegisterComponent("consensus", StatusDegraded, "consensus resolution slow")

	readiness := GetReadiness()

	if readiness.Status != StatusUnhealthy {
		t.Errorf("a degraded critical component must block readiness, got '%s'", readiness.Status)
	}
}

func TestGetReadiness_CriticalComponentUnhealthy(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("storage", StatusUnhealthy, "not connected")
	RegisterComponent("swarm", StatusHealthy, "")
	RegisterComponent("consensus", StatusHealthy, "")

	readiness := GetReadiness()

	if readiness.Status != StatusUnhealthy {
		t.Errorf("expected status 'unhealthy', got '%s'", readiness.Status)
	}
}

func TestHealthHandler(t *testing.T) {
	resetHealthChecker()
	healthChecker.version = "test"

	RegisterComponent("test", StatusHealthy, "")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler := HealthHandler()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var health HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if health.Status != StatusHealthy {
		t.Errorf("expected healthy status, got %s", health.Status)
	}

	if health.Version != "test" {
		t.Errorf("expected version 'test', got %s", health.Version)
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("token_budget", StatusDegraded, "under pressure")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler := HealthHandler()
	handler(w, req)

	// Degraded still serves traffic: /health only trips 503 on Unhealthy.
	if w.Code != http.StatusOK {
		t.Errorf("expected status 200 for degraded, got %d", w.Code)
	}
}

func TestHealthHandler_Unhealthy(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("test", StatusUnhealthy, "broken")

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	handler := HealthHandler()
	handler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var health HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&health); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if health.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy status, got %s", health.Status)
	}
}

func TestReadyHandler(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("storage", StatusHealthy, "")
	RegisterComponent("swarm", StatusHealthy, "")
	RegisterComponent("consensus", StatusHealthy, "")

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()

	handler := ReadyHandler()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var readiness HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&readiness); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if readiness.Status != StatusHealthy {
		t.Errorf("expected healthy status, got %s", readiness.Status)
	}
}

func TestReadyHandler_NotReady(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("storage", StatusHealthy, "")
	// swarm/consensus not registered

	req := httptest.NewRequest("GET", "/ready", nil)
	w := httptest.NewRecorder()

	handler := ReadyHandler()
	handler(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}

	var readiness HealthStatus
	if err := json.NewDecoder(w.Body).Decode(&readiness); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if readiness.Status != StatusUnhealthy {
		t.Errorf("expected unhealthy status, got %s", readiness.Status)
	}
}

func TestLivenessHandler(t *testing.T) {
	resetHealthChecker()

	req := httptest.NewRequest("GET", "/live", nil)
	w := httptest.NewRecorder()

	handler := LivenessHandler()
	handler(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["status"] != "alive" {
		t.Errorf("expected status 'alive', got '%s'", response["status"])
	}

	if response["uptime"] == "" {
		t.Error("uptime should not be empty")
	}
}

func TestUpdateComponent(t *testing.T) {
	resetHealthChecker()

	RegisterComponent("test", StatusHealthy, "ok")
	UpdateComponent("test", StatusUnhealthy, "error")

	comp := healthChecker.components["test"]
	if comp.Status != StatusUnhealthy {
		t.Error("component should be unhealthy after update")
	}

	if comp.Message != "error" {
		t.Errorf("expected message 'error', got '%s'", comp.Message)
	}
}

func TestUpdateTokenBudgetHealthThresholds(t *testing.T) {
	resetHealthChecker()

	updateTokenBudgetHealth(100, 50)
	if healthChecker.components["token_budget"].Status != StatusHealthy {
		t.Errorf("50%% consumption should be healthy, got %s", healthChecker.components["token_budget"].Status)
	}

	updateTokenBudgetHealth(100, 85)
	if healthChecker.components["token_budget"].Status != StatusDegraded {
		t.Errorf("85%% consumption should be degraded, got %s", healthChecker.components["token_budget"].Status)
	}

	updateTokenBudgetHealth(100, 97)
	if healthChecker.components["token_budget"].Status != StatusUnhealthy {
		t.Errorf("97%% consumption should be unhealthy, got %s", healthChecker.components["token_budget"].Status)
	}

	updateTokenBudgetHealth(0, 0)
	if healthChecker.components["token_budget"].Status != StatusHealthy {
		t.Errorf("an unlimited (zero) budget should never report unhealthy, got %s", healthChecker.components["token_budget"].Status)
	}
}
