package storage

import "context"

// HealthCheck reports the backend status in the form used by the health endpoint.
func HealthCheck(ctx context.Context, store ObjectStore) string {
	if err := store.Ping(ctx); err != nil {
		return "unhealthy: " + err.Error()
	}
	return "healthy"
}
