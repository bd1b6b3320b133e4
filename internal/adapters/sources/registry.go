package sources

import (
	"go.uber.org/zap"

	"footprint/internal/config"
	"footprint/internal/ports"
)

// Build returns every connector enabled by cfg. Integrations whose toggle is
// off are left out entirely; enabled ones without credentials are still
// registered and report needs_key.
func Build(cfg config.Config, logger *zap.Logger) []ports.Connector {
	logger = logger.Named("sources")
	opts := Options{
		Timeout:        cfg.RequestTimeout,
		RateLimitDelay: cfg.RateLimitDelay,
		UserAgents:     cfg.UserAgents,
		MaxResults:     cfg.MaxResults,
	}
	creds := cfg.Credentials

	conns := []ports.Connector{
		NewGitHub(opts),
		NewReddit(opts),
		NewLinkedIn(opts),
		NewPhoneAnalysis(),
		NewDehashed(opts, creds.DehashedUsername, creds.DehashedKey),
	}
	for _, group := range [][]*linkConnector{socialEmailLinks(), socialPhoneLinks(), professionalLinks(), breachLinks()} {
		for _, l := range group {
			conns = append(conns, l)
		}
	}
	if !creds.HasDehashed() {
		logger.Warn("Credentials required", zap.String("source", "dehashed"))
	}

	optional := []struct {
		enabled bool
		hasKey  bool
		conn    ports.Connector
	}{
		{cfg.Features.HIBP, creds.HIBPKey != "", NewHIBP(opts, creds.HIBPKey)},
		{cfg.Features.EmailRep, creds.EmailRepKey != "", NewEmailRep(opts, creds.EmailRepKey)},
		{cfg.Features.Hunter, creds.HunterKey != "", NewHunter(opts, creds.HunterKey)},
		{cfg.Features.DNS, true, NewDNS(opts)},
		{cfg.Features.Search, true, NewSearch(opts)},
	}
	for _, o := range optional {
		if !o.enabled {
			logger.Debug("Connector disabled", zap.String("source", o.conn.Name()))
			_ = o.conn.Close()
			continue
		}
		if !o.hasKey {
			logger.Warn("Credentials required", zap.String("source", o.conn.Name()))
		}
		conns = append(conns, o.conn)
	}
	return conns
}
