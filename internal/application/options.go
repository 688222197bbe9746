package application

import (
	"time"

	"fxledger/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Clock interface{ Now() time.Time }

type IDGen interface{ NewID() string }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type defaultIDGen struct{}

func (defaultIDGen) NewID() string { return uuid.NewString() }

type options struct {
	clock Clock
	idgen IDGen
	loc   *time.Location
	log   *zap.Logger
}

type Option func(*options)

func WithClock(c Clock) Option { return func(o *options) { o.clock = c } }
func WithIDGen(g IDGen) Option { return func(o *options) { o.idgen = g } }

// WithLocation sets the timezone that decides what "today" is for rate dates.
func WithLocation(loc *time.Location) Option { return func(o *options) { o.loc = loc } }

func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.clock == nil {
		o.clock = realClock{}
	}
	if o.idgen == nil {
		o.idgen = defaultIDGen{}
	}
	if o.loc == nil {
		o.loc = time.UTC
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return o
}

func (o options) today() time.Time { return domain.DateOf(o.clock.Now().In(o.loc)) }
