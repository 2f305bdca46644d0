// Package topic provides an in-process, hierarchical publish/subscribe engine.
//
// Topics are addressed by dotted paths ("orders.created.eu"). A payload published
// on a topic is delivered to that topic's subscribers and then, walking towards the
// root, to the subscribers of every ancestor. Publishing never reaches descendants.
//
// # Core Components
//
// Topic is the handle of one node of the tree. Resolve creates missing topics on the
// way and Pop returns the parent. A handle stays bound to its node.
//
// Subscriber and Middleware are registration tokens. Go functions cannot be compared,
// so topics keep and remove these pointers by identity.
//
// Middleware run before delivery, ancestors' middleware first. Each middleware calls
// next to continue; not calling it drops the payload. Changing the middleware of a
// topic rebuilds the composed chain of its whole subtree.
//
// Loop is the default Scheduler: a FIFO task queue that runs one task at a time.
//
// # Basic Usage
//
//	root := topic.New()
//	defer root.Close()
//
//	root.Resolve("orders").Subscribe(topic.Func(func(ctx context.Context, p any, m topic.Meta) error {
//		// m.Path == "orders", m.Origin == "orders.created"
//		return nil
//	}))
//
//	err := root.Resolve("orders.created").PublishSync(ctx, order)
//
// # Delivery Modes
//
// PublishSync delivers before it returns. The first error from a middleware or a
// subscriber stops the delivery and is returned; panics propagate to the caller.
//
// PublishAsync (and Publish) append the payload to the topic's pending batch. The
// publish that finds the batch empty schedules one flush; later publishes only append.
// The flush delivers the batch in publish order. Failures are passed to the
// ErrorHandler, and panics are recovered and reported as *PanicError.
//
//	loop := topic.NewLoop()
//	root := topic.New(topic.WithScheduler(loop))
//
//	foo := root.Resolve("foo")
//	foo.PublishAsync(ctx, 1)
//	foo.PublishAsync(ctx, 2) // same batch, no second flush
//	loop.RunPending()        // both payloads delivered, 1 then 2
//
// # Goroutines
//
// Every publish runs its subscribers on one goroutine: PublishSync on the caller's,
// a flush on the scheduler's. The loop that New starts by default is a separate
// goroutine, so a subscriber can be called from a flush and from PublishSync at the
// same time. Subscribers sharing state under the default loop must synchronize it.
// With a caller-driven Loop (WithScheduler, then RunPending) all deliveries run on
// the caller's goroutine and never overlap.
//
// # Once Subscribers
//
// Once subscribers receive a single payload. Each topic's once list is swapped out
// before its subscribers are called, so subscribers registered during a delivery
// wait for the next one.
//
// # Fault Isolation
//
// WithFaultIsolation(true) keeps delivering after a subscriber fails or panics and
// returns all failures joined with errors.Join.
//
// # Configuration
//
// Config is loaded from the environment with the config package:
//
//	var cfg topic.Config
//	config.MustLoad(&cfg)
//	root := topic.New(topic.WithConfig(cfg))
//
// # Observability
//
// Stats returns delivery counters for the tree and Healthcheck reports whether it
// still accepts publishes. LoggingMiddleware logs every payload passing a topic.
package topic
