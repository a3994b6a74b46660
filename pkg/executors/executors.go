// Package executors registers the built-in action executor factories.
package executors

import (
	"github.com/jonboulle/clockwork"

	"github.com/yanyucloud/flowd/pkg/eventbus"
	"github.com/yanyucloud/flowd/pkg/executors/condition"
	"github.com/yanyucloud/flowd/pkg/executors/delay"
	"github.com/yanyucloud/flowd/pkg/executors/email"
	"github.com/yanyucloud/flowd/pkg/executors/notification"
	scriptexecutor "github.com/yanyucloud/flowd/pkg/executors/script"
	"github.com/yanyucloud/flowd/pkg/executors/webhook"
	"github.com/yanyucloud/flowd/pkg/protocol"
	"github.com/yanyucloud/flowd/pkg/registry"
	"github.com/yanyucloud/flowd/pkg/script"
)

// Dependencies carries the host capabilities the built-in executors need.
type Dependencies struct {
	Notifier protocol.Notifier
	EventBus eventbus.EventBus
	Clock    clockwork.Clock
	Engines  []protocol.ScriptEngine
}

// RegisterAll registers one factory per built-in action type. When no script
// engines are supplied the bundled Go engine is used.
func RegisterAll(r *registry.Registry, deps Dependencies) {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	engines := deps.Engines
	if len(engines) == 0 {
		engines = []protocol.ScriptEngine{script.NewEngine()}
	}

	r.Register(notification.NewFactory(deps.Notifier, deps.EventBus))
	r.Register(email.NewFactory())
	r.Register(webhook.NewFactory())
	r.Register(scriptexecutor.NewFactory(engines...))
	r.Register(delay.NewFactory(deps.Clock))
	r.Register(condition.NewFactory())
}
