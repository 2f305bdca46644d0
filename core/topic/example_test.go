package topic_test

import (
	"context"
	"fmt"

	"github.com/dmitrymomot/topictree/core/topic"
)

func Example() {
	ctx := context.Background()
	root := topic.New()
	defer root.Close()

	show := topic.Func(func(_ context.Context, payload any, meta topic.Meta) error {
		fmt.Printf("%s got %v from %s\n", meta.Path, payload, meta.Origin)
		return nil
	})
	root.Resolve("orders").Subscribe(show)
	root.Resolve("orders.created").Subscribe(show)

	_ = root.Resolve("orders.created").PublishSync(ctx, "order-1")
	_ = root.Resolve("orders").PublishSync(ctx, "order-2")

	// Output:
	// orders.created got order-1 from orders.created
	// orders got order-1 from orders.created
	// orders got order-2 from orders
}

func ExampleTopic_PublishAsync() {
	ctx := context.Background()
	loop := topic.NewLoop()
	root := topic.New(topic.WithScheduler(loop))

	foo := root.Resolve("foo").Subscribe(topic.Func(func(_ context.Context, payload any, _ topic.Meta) error {
		fmt.Println("delivered", payload)
		return nil
	}))

	_ = foo.PublishAsync(ctx, 1)
	_ = foo.PublishAsync(ctx, 2)
	fmt.Println("published")

	loop.RunPending()

	// Output:
	// published
	// delivered 1
	// delivered 2
}

func ExampleTopic_Use() {
	ctx := context.Background()
	loop := topic.NewLoop()
	root := topic.New(topic.WithScheduler(loop))

	trace := func(name string) *topic.Middleware {
		return topic.NewMiddleware(name, func(ctx context.Context, payload any, meta topic.Meta, next topic.Next) error {
			fmt.Println("middleware", name)
			return next(ctx, payload, meta)
		})
	}
	root.Use(trace("root"))
	foo := root.Resolve("foo").Use(trace("foo"))

	foo.Subscribe(topic.Func(func(context.Context, any, topic.Meta) error {
		fmt.Println("subscriber")
		return nil
	}))

	_ = foo.PublishSync(ctx, nil)

	// Output:
	// middleware root
	// middleware foo
	// subscriber
}

func ExampleTopic_Once() {
	ctx := context.Background()
	loop := topic.NewLoop()
	root := topic.New(topic.WithScheduler(loop))

	ready := root.Resolve("app.ready").Once(topic.Func(func(context.Context, any, topic.Meta) error {
		fmt.Println("ready")
		return nil
	}))

	_ = ready.PublishSync(ctx, nil)
	_ = ready.PublishSync(ctx, nil)
	fmt.Println(ready.Subscribers())

	// Output:
	// ready
	// 0
}
