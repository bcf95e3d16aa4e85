package skill

import (
	"context"

	"github.com/vietddude/askhub/internal/auth"
	"github.com/vietddude/askhub/internal/core/domain"
	"github.com/vietddude/askhub/internal/infra/hub"
	"github.com/vietddude/askhub/internal/locale"
)

// HubClient is the part of *hub.Client the handlers use.
type HubClient interface {
	Fetch(ctx context.Context) bool
	Post(ctx context.Context, value string, typ domain.ResponseType, extra map[string]any) string
	Active() (*domain.ActiveQuestion, bool)
	State() domain.QuestionState
	Err() error
	PostLog(ctx context.Context, message string, extra map[string]any) bool
	Close() error
}

// ClientFactory builds the hub client of one invocation.
type ClientFactory func(ctx context.Context, inv *Invocation) (HubClient, error)

// NewHubFactory returns a ClientFactory building real hub clients.
// store caches account-linking tokens and may be nil; observer may be nil.
func NewHubFactory(cfg hub.Config, store auth.Store, observer hub.Observer) ClientFactory {
	return func(ctx context.Context, inv *Invocation) (HubClient, error) {
		opts := []hub.Option{
			hub.WithCaller(inv.Caller),
			hub.WithMessages(MessagesFor(inv.Strings)),
			hub.WithTokenSource(auth.NewLinkedAccountSource(store, inv.Caller)),
		}
		if observer != nil {
			opts = append(opts, hub.WithObserver(observer))
		}
		c, err := hub.NewClient(ctx, cfg, opts...)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// MessagesFor maps classified hub errors to spoken strings.
func MessagesFor(s locale.Strings) hub.Messages {
	general := s.Get(locale.ErrorGeneral, "An error occurred")
	network := s.Get(locale.ErrorNetwork, "Network error")
	return hub.Messages{
		Acknowledge: s.Get(locale.Okay, "OK"),
		Unavailable: s.Get(locale.ErrorConfig, "Error"),
		Errors: map[hub.ErrorKind]string{
			hub.KindUnauthorized:      s.Get(locale.Error401, "Authentication error"),
			hub.KindNotFound:          s.Get(locale.Error404, "Resource not found"),
			hub.KindBadRequest:        s.Get(locale.Error400, "Request error"),
			hub.KindServerError:       general,
			hub.KindTimeout:           network,
			hub.KindConnectionFailed:  network,
			hub.KindParseFailure:      s.Get(locale.ErrorParse, "Failed to parse response"),
			hub.KindContractViolation: s.Get(locale.ErrorConfig, "Error"),
			hub.KindUnknown:           general,
		},
	}
}
