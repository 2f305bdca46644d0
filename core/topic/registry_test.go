package topic_test

import (
	"context"
	"testing"

	"github.com/dmitrymomot/topictree/core/topic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribe_ReceivesEveryPublish(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()
	rec := newRecorder()

	foo := root.Resolve("foo").Subscribe(rec.sub)
	require.NoError(t, foo.PublishSync(ctx, "hello"))
	require.NoError(t, foo.PublishSync(ctx, "world"))

	assert.Equal(t, []string{"foo", "foo"}, rec.Paths())
	assert.Equal(t, []any{"hello", "world"}, rec.Payloads())
}

func TestSubscribe_IgnoresNil(t *testing.T) {
	t.Parallel()

	root, _ := newManualTree()
	foo := root.Resolve("foo").Subscribe(nil).Once(nil, nil)
	assert.Equal(t, 0, foo.Subscribers())
	assert.Nil(t, topic.Func(nil))
	assert.Nil(t, topic.NewSubscriber("nil", nil))
}

func TestSubscribe_IgnoresZeroValues(t *testing.T) {
	t.Parallel()

	root, loop := newManualTree()
	foo := root.Resolve("foo").
		Subscribe(&topic.Subscriber{}).
		Once(&topic.Subscriber{})
	assert.Equal(t, 0, foo.Subscribers())

	assert.NotPanics(t, func() {
		require.NoError(t, foo.PublishSync(t.Context(), 1))
		require.NoError(t, foo.PublishAsync(t.Context(), 2))
		loop.RunPending()
	})
}

func TestSubscribe_DuplicatesAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()
	a, b := newRecorder(), newRecorder()

	foo := root.Resolve("foo").Subscribe(a.sub, a.sub).Subscribe(b.sub)
	require.Equal(t, 3, foo.Subscribers())

	foo.Unsubscribe(b.sub)
	require.NoError(t, foo.PublishSync(ctx, "x"))

	assert.Equal(t, []string{"foo", "foo"}, a.Paths(), "both registrations of a fire")
	assert.Empty(t, b.Paths())
	assert.Equal(t, 2, foo.Subscribers())
}

func TestUnsubscribe_OnlySpecified(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()
	a, b := newRecorder(), newRecorder()

	foo := root.Resolve("foo").Subscribe(a.sub).Subscribe(b.sub)
	require.NoError(t, foo.PublishSync(ctx, "x"))
	foo.Unsubscribe(b.sub)
	require.NoError(t, foo.PublishSync(ctx, "y"))

	assert.Equal(t, []string{"foo", "foo"}, a.Paths())
	assert.Equal(t, []string{"foo"}, b.Paths())
}

func TestUnsubscribe_OnlySpecifiedOnce(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()
	a, b := newRecorder(), newRecorder()

	foo := root.Resolve("foo").Once(a.sub).Once(b.sub).Unsubscribe(b.sub)
	require.NoError(t, foo.PublishSync(ctx, "x"))
	require.NoError(t, foo.PublishSync(ctx, "y"))

	assert.Equal(t, []string{"foo"}, a.Paths())
	assert.Empty(t, b.Paths())
}

func TestUnsubscribe_Unknown(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()
	a, stranger := newRecorder(), newRecorder()

	foo := root.Resolve("foo").Subscribe(a.sub).Unsubscribe(stranger.sub)
	require.NoError(t, foo.PublishSync(ctx, "x"))
	assert.Equal(t, []string{"foo"}, a.Paths())
}

func TestUnsubscribe_All(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()
	a, b, child := newRecorder(), newRecorder(), newRecorder()

	foo := root.Resolve("foo").Subscribe(a.sub).Once(b.sub)
	bar := foo.Resolve("bar").Subscribe(child.sub)

	foo.Unsubscribe()
	require.NoError(t, foo.PublishSync(ctx, "x"))
	assert.Empty(t, a.Paths())
	assert.Empty(t, b.Paths())
	assert.Equal(t, 0, foo.Subscribers())

	require.NoError(t, bar.PublishSync(ctx, "y"))
	assert.Equal(t, []string{"foo.bar"}, child.Paths(), "descendants keep their subscribers")
}

func TestOnce_FiresOnce(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()
	rec := newRecorder()

	foo := root.Resolve("foo").Once(rec.sub)
	require.NoError(t, foo.PublishSync(ctx, "hello"))
	require.NoError(t, foo.PublishSync(ctx, "world"))

	assert.Equal(t, []string{"foo"}, rec.Paths())
	assert.Equal(t, []any{"hello"}, rec.Payloads())
	assert.Equal(t, 0, foo.Subscribers(), "once subscriber is gone from the registry")
}

func TestOnce_OnAncestor(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()
	rec := newRecorder()

	root.Resolve("foo").Once(rec.sub)
	bar := root.Resolve("foo.bar")
	require.NoError(t, bar.PublishSync(ctx, 1))
	require.NoError(t, bar.PublishSync(ctx, 2))

	assert.Equal(t, []string{"foo"}, rec.Paths())
}

func TestOnce_RegisteredDuringDelivery(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()
	late := newRecorder()

	foo := root.Resolve("foo")
	foo.Once(topic.Func(func(ctx context.Context, _ any, _ topic.Meta) error {
		foo.Once(late.sub)
		return nil
	}))

	require.NoError(t, foo.PublishSync(ctx, "first"))
	assert.Empty(t, late.Paths(), "a once subscriber added during delivery waits for the next publish")
	assert.Equal(t, 1, foo.Subscribers())

	require.NoError(t, foo.PublishSync(ctx, "second"))
	assert.Equal(t, []any{"second"}, late.Payloads())
	assert.Equal(t, 0, foo.Subscribers())
}

func TestOnce_BeforePersistent(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()

	var order []string
	persistent := topic.Func(func(context.Context, any, topic.Meta) error {
		order = append(order, "persistent")
		return nil
	})
	once := topic.Func(func(context.Context, any, topic.Meta) error {
		order = append(order, "once")
		return nil
	})

	foo := root.Resolve("foo").Subscribe(persistent).Once(once)
	require.NoError(t, foo.PublishSync(ctx, nil))
	assert.Equal(t, []string{"once", "persistent"}, order)
}

func TestClear_Recursive(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()
	rec := newRecorder()

	baz := root.Resolve("foo").Subscribe(rec.sub).
		Subtopic("bar").Subscribe(rec.sub).
		Subtopic("baz").Subscribe(rec.sub).Once(rec.sub)

	require.NoError(t, baz.PublishSync(ctx, "x"))
	require.Equal(t, []string{"foo.bar.baz", "foo.bar.baz", "foo.bar", "foo"}, rec.Paths())

	root.Clear()
	require.NoError(t, baz.PublishSync(ctx, "y"))

	assert.Len(t, rec.Paths(), 4)
	assert.Equal(t, []string{"foo"}, root.Children(), "topics survive a clear")
}

func TestClear_KeepsAncestors(t *testing.T) {
	t.Parallel()

	ctx := t.Context()
	root, _ := newManualTree()
	parent, child := newRecorder(), newRecorder()

	root.Resolve("foo").Subscribe(parent.sub)
	bar := root.Resolve("foo.bar").Subscribe(child.sub)

	bar.Clear()
	require.NoError(t, bar.PublishSync(ctx, "x"))

	assert.Empty(t, child.Paths())
	assert.Equal(t, []string{"foo"}, parent.Paths())
}

func TestSubscriber_Names(t *testing.T) {
	t.Parallel()

	named := topic.NewSubscriber("audit", topic.HandlerFunc(func(context.Context, any, topic.Meta) error { return nil }))
	assert.Equal(t, "audit", named.Name())

	anon := topic.Func(func(context.Context, any, topic.Meta) error { return nil })
	assert.Equal(t, anon.ID().String(), anon.Name())
	assert.NotEqual(t, named.ID(), anon.ID())
}
