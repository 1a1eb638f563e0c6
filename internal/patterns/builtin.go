package patterns

import "github.com/miradorstack/mirador-kb/internal/models"

// DefaultPatterns returns a fresh copy of the built-in catalog.
func DefaultPatterns() []models.Pattern {
	return []models.Pattern{
		{
			ID:          "pat-oom-killed",
			Name:        "OOMKilled Container",
			Description: "Container terminated by the kernel after exceeding its memory limit.",
			Category:    models.CategoryResource,
			Symptoms:    []string{"oomkilled", "out of memory", "memory limit", "heap space", "oom"},
			RootCauses: []string{
				"Container memory limit too low",
				"Memory leak in application",
				"Unbounded cache or buffer growth",
			},
			Fixes: []models.PatternFix{
				{Description: "Increase the container memory limit", Type: models.FixConfigChange},
				{Description: "Profile heap usage and fix the leak", Type: models.FixCodeChange},
				{Description: "Bound in-memory caches and buffers", Type: models.FixCodeChange},
			},
			SuccessRate: 0.8,
			Confidence:  0.9,
		},
		{
			ID:          "pat-connection-refused",
			Name:        "Connection Refused",
			Description: "A dependency rejects or never accepts connections.",
			Category:    models.CategoryReliability,
			Symptoms:    []string{"connection refused", "econnrefused", "dial tcp", "no route to host", "connection reset"},
			RootCauses: []string{
				"Dependency service is down or not yet ready",
				"Wrong host or port in service configuration",
				"Network policy or firewall blocking traffic",
			},
			Fixes: []models.PatternFix{
				{Description: "Check dependency health and restart it", Type: models.FixManual},
				{Description: "Correct the dependency host and port configuration", Type: models.FixConfigChange},
				{Description: "Retry dependency connections with backoff on startup", Type: models.FixCodeChange},
			},
			SuccessRate: 0.75,
			Confidence:  0.85,
		},
		{
			ID:          "pat-slow-queries",
			Name:        "Slow Database Queries",
			Description: "Database statements take long enough to stall requests.",
			Category:    models.CategoryPerformance,
			Symptoms:    []string{"slow query", "query timeout", "statement timeout", "lock wait", "deadlock"},
			RootCauses: []string{
				"Missing or unused index",
				"Lock contention between transactions",
				"Connection pool exhausted",
			},
			Fixes: []models.PatternFix{
				{Description: "Add an index for the slow query", Type: models.FixCodeChange},
				{Description: "Rewrite the query to reduce scanned rows", Type: models.FixCodeChange},
				{Description: "Increase the database connection pool size", Type: models.FixConfigChange},
			},
			SuccessRate: 0.7,
			Confidence:  0.75,
		},
		{
			ID:          "pat-crash-loop",
			Name:        "Deployment Crash Loop",
			Description: "Pods of a new release crash repeatedly after start.",
			Category:    models.CategoryDeployment,
			Symptoms:    []string{"crashloopbackoff", "back-off restarting", "crashloop", "exit code", "liveness probe failed"},
			RootCauses: []string{
				"New release fails during startup",
				"Missing configuration or secret",
				"Liveness probe too aggressive",
			},
			Fixes: []models.PatternFix{
				{Description: "Roll back to the previous release", Type: models.FixRollback},
				{Description: "Provide the missing configuration or secret", Type: models.FixConfigChange},
				{Description: "Relax liveness probe timings", Type: models.FixConfigChange},
			},
			SuccessRate: 0.85,
			Confidence:  0.85,
		},
		{
			ID:          "pat-high-error-rate",
			Name:        "High 5xx Error Rate",
			Description: "A service answers a large share of requests with server errors.",
			Category:    models.CategoryReliability,
			Symptoms:    []string{"error rate", "5xx", "internal server error", "status 500", "503"},
			RootCauses: []string{
				"Recent deployment introduced a regression",
				"Downstream dependency failing",
				"Unhandled exception in request path",
			},
			Fixes: []models.PatternFix{
				{Description: "Roll back the latest deployment", Type: models.FixRollback},
				{Description: "Inspect logs of the failing endpoint and patch the handler", Type: models.FixCodeChange},
				{Description: "Add a circuit breaker around the failing dependency", Type: models.FixCodeChange},
			},
			SuccessRate: 0.7,
			Confidence:  0.7,
		},
		{
			ID:          "pat-consumer-lag",
			Name:        "Consumer Lag",
			Description: "Message consumers fall behind producers.",
			Category:    models.CategoryPerformance,
			Symptoms:    []string{"consumer lag", "offset lag", "backlog", "queue depth", "rebalanc"},
			RootCauses: []string{
				"Too few consumer instances",
				"Slow message handler",
				"Frequent consumer group rebalances",
			},
			Fixes: []models.PatternFix{
				{Description: "Scale out consumers", Type: models.FixInfrastructure},
				{Description: "Batch or parallelise message handling", Type: models.FixCodeChange},
				{Description: "Tune session timeouts to avoid rebalances", Type: models.FixConfigChange},
			},
			SuccessRate: 0.7,
			Confidence:  0.7,
		},
		{
			ID:          "pat-cert-expiry",
			Name:        "Certificate Expiry",
			Description: "TLS connections fail because a certificate is expired or untrusted.",
			Category:    models.CategorySecurity,
			Symptoms:    []string{"certificate has expired", "certificate expired", "x509", "tls handshake", "ssl"},
			RootCauses: []string{
				"TLS certificate was not renewed",
				"Clock skew on the client or server",
			},
			Fixes: []models.PatternFix{
				{Description: "Renew and redeploy the certificate", Type: models.FixInfrastructure},
				{Description: "Automate certificate renewal", Type: models.FixInfrastructure},
			},
			SuccessRate: 0.9,
			Confidence:  0.9,
		},
		{
			ID:          "pat-disk-pressure",
			Name:        "Disk Pressure",
			Description: "A node or volume runs out of disk space.",
			Category:    models.CategoryResource,
			Symptoms:    []string{"no space left", "disk full", "diskpressure", "disk pressure", "evicted"},
			RootCauses: []string{
				"Logs or temporary files filling the disk",
				"Persistent volume sized too small",
			},
			Fixes: []models.PatternFix{
				{Description: "Clean up old logs and temporary files", Type: models.FixManual},
				{Description: "Expand the persistent volume", Type: models.FixInfrastructure},
				{Description: "Configure log rotation", Type: models.FixConfigChange},
			},
			SuccessRate: 0.8,
			Confidence:  0.8,
		},
	}
}
