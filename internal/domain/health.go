package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual service.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
}

// RecapMetrics is returned by GET /v1/metrics/recap.
type RecapMetrics struct {
	TotalRequests     int64   `json:"totalRequests"`
	ErrorRate         float64 `json:"errorRate"`
	CacheHitRate      float64 `json:"cacheHitRate"`
	Exports           int64   `json:"exports"`
	StaleFallbacks    int64   `json:"staleFallbacks"`
	DiscardedResponse int64   `json:"discardedResponses"`
	Period            string  `json:"period"`
}

// RecapStateResponse is returned by GET /v1/owners/{ownerId}/recaps/{month}/state.
type RecapStateResponse struct {
	OwnerID string     `json:"ownerId"`
	Month   string     `json:"month"`
	State   RecapState `json:"state"`
}
