package httpinterface

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/vigil-network/vigil-daemon/internal/core/application"
	"github.com/vigil-network/vigil-daemon/internal/interfaces"
	"github.com/vigil-network/vigil-daemon/pkg/macaroons"
)

const shutdownTimeout = 5 * time.Second

// ServiceOpts configures the HTTP interface.
type ServiceOpts struct {
	Address string

	Datadir           string
	TLSLocation       string
	MacaroonsLocation string
	ExtraIPs          []string
	ExtraDomains      []string

	// NoTLS serves plain HTTP, NoMacaroons disables the operator auth layer.
	// Both are meant for development setups only.
	NoTLS       bool
	NoMacaroons bool

	// CheckRatePerSecond paces check submissions, 0 leaves them unpaced.
	CheckRatePerSecond int

	OperatorSvc  application.OperatorService
	ScreeningSvc application.ScreeningService
	MacaroonSvc  *macaroons.Service

	// Sealer, when set, mounts the input sealing endpoint backed by the
	// embedded soft engine.
	Sealer Sealer
}

func (o ServiceOpts) validate() error {
	if o.Address == "" {
		return fmt.Errorf("listening address must not be empty")
	}
	if !pathExists(o.Datadir) {
		return fmt.Errorf("%s: datadir must be an existing directory", o.Datadir)
	}
	if !o.NoMacaroons && o.MacaroonSvc == nil {
		return fmt.Errorf("macaroon service must not be null")
	}
	if o.OperatorSvc == nil {
		return fmt.Errorf("operator app service must not be null")
	}
	if o.ScreeningSvc == nil {
		return fmt.Errorf("screening app service must not be null")
	}
	return nil
}

func (o ServiceOpts) tlsDatadir() string {
	return filepath.Join(o.Datadir, o.TLSLocation)
}

func (o ServiceOpts) macaroonsDatadir() string {
	return filepath.Join(o.Datadir, o.MacaroonsLocation)
}

type service struct {
	opts   ServiceOpts
	server *http.Server
}

// NewService returns the HTTP interface of the daemon, serving the public
// screening API and the macaroon-gated operator API on the same port.
func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid opts: %s", err)
	}

	if !opts.NoTLS {
		if err := generateTLSKeyCert(
			opts.tlsDatadir(), opts.ExtraIPs, opts.ExtraDomains,
		); err != nil {
			return nil, err
		}
	}

	svc := &service{opts: opts}
	svc.server = &http.Server{
		Addr:    opts.Address,
		Handler: svc.router(),
	}
	return svc, nil
}

func (s *service) Start() error {
	if !s.opts.NoMacaroons {
		if err := genMacaroons(
			context.Background(), s.opts.MacaroonSvc, s.opts.macaroonsDatadir(),
		); err != nil {
			return err
		}
	}

	go func() {
		var err error
		if s.opts.NoTLS {
			err = s.server.ListenAndServe()
		} else {
			err = s.server.ListenAndServeTLS(
				filepath.Join(s.opts.tlsDatadir(), TLSCertFile),
				filepath.Join(s.opts.tlsDatadir(), TLSKeyFile),
			)
		}
		if err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("http interface exited with error")
		}
	}()

	log.Infof("http interface listening on %s", s.opts.Address)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("an error occured while shutting down http interface")
	}
	log.Debug("disabled http interface")
}

func (s *service) router() http.Handler {
	operator := newOperatorHandler(s.opts.OperatorSvc)
	screening := newScreeningHandler(s.opts.ScreeningSvc)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/healthz", healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", operator.getInfo)

		if s.opts.Sealer != nil {
			engine := newEngineHandler(s.opts.Sealer)
			r.With(signatureAuth).Post("/engine/seal", engine.seal)
		}

		r.Route("/screening/checks", func(r chi.Router) {
			r.Get("/count", screening.getCheckCount)
			r.Get("/{checkId}/status", screening.getCheckStatus)
			r.Get("/{checkId}/user", screening.getCheckUser)
			r.Get("/{checkId}/timestamp", screening.getCheckTimestamp)
			r.Get("/{checkId}/grants/{party}", screening.hasAccess)

			// Submitter surface, the signature identifies the caller.
			r.Group(func(r chi.Router) {
				r.Use(signatureAuth)
				r.With(rateLimited(s.opts.CheckRatePerSecond)).
					Post("/", screening.submitCheck)
				r.Post("/{checkId}/reveal", screening.revealCheckStatus)
				r.Get("/{checkId}/grants", screening.listGrants)
				r.Post("/{checkId}/grants", screening.grantAccess)
				r.Delete("/{checkId}/grants/{party}", screening.revokeAccess)
			})
		})

		r.Route("/watchlist/entities", func(r chi.Router) {
			r.Get("/count", screening.getEntityCount)

			r.Group(func(r chi.Router) {
				r.Use(signatureAuth)
				r.With(s.macaroonAuth(EntityWatchlist, "write")).
					Post("/", operator.addEntity)
				r.With(s.macaroonAuth(EntityWatchlist, "write")).
					Post("/{entityId}/deactivate", operator.deactivateEntity)
				r.With(s.macaroonAuth(EntityWatchlist, "write")).
					Post("/{entityId}/reactivate", operator.reactivateEntity)
			})
		})

		r.Route("/access", func(r chi.Router) {
			r.Get("/curators/{party}", screening.isCurator)

			r.Group(func(r chi.Router) {
				r.Use(signatureAuth)
				r.With(s.macaroonAuth(EntityAccess, "read")).
					Get("/", operator.getAccessInfo)
				r.With(s.macaroonAuth(EntityAccess, "write")).
					Post("/curators", operator.addCurator)
				r.With(s.macaroonAuth(EntityAccess, "write")).
					Delete("/curators/{party}", operator.removeCurator)
				r.With(s.macaroonAuth(EntityAccess, "write")).
					Post("/transfer", operator.transferOwnership)
			})
		})

		r.Route("/webhooks", func(r chi.Router) {
			r.Use(signatureAuth)
			r.With(s.macaroonAuth(EntityWebhook, "read")).
				Get("/", operator.listWebhooks)
			r.With(s.macaroonAuth(EntityWebhook, "write")).
				Post("/", operator.addWebhook)
			r.With(s.macaroonAuth(EntityWebhook, "write")).
				Delete("/{id}", operator.removeWebhook)
		})
	})

	return r
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
