package topic

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/topictree/core/logger"
)

// Separator splits topic paths into segments.
const Separator = "."

// tree holds the state shared by every node of one topic hierarchy.
type tree struct {
	root *node

	scheduler    Scheduler
	loop         *Loop // owned loop, nil when the scheduler was supplied
	isolate      bool
	errorHandler ErrorHandler
	logger       *slog.Logger

	// wareMu serializes middleware changes and the subtree rebuilds they trigger.
	wareMu sync.Mutex
	closed atomic.Bool

	stats treeStats
}

// node is one topic in the tree. It owns its children; parent is a back link.
type node struct {
	tree   *tree
	parent *node
	name   string
	path   string
	handle *Topic

	mu          sync.Mutex
	children    map[string]*node
	subscribers []*Subscriber
	once        []*Subscriber
	wares       []*Middleware
	pipeline    Next
	pending     []envelope

	seq atomic.Uint64
}

func newNode(t *tree, parent *node, name string) *node {
	path := name
	if parent != nil && parent.path != "" {
		path = parent.path + Separator + name
	}

	n := &node{
		tree:     t,
		parent:   parent,
		name:     name,
		path:     path,
		children: make(map[string]*node),
	}
	n.handle = &Topic{n: n}
	n.pipeline = n.deliver
	return n
}

// resolve walks path from n, creating missing nodes on the way.
// Empty segments are skipped.
func (n *node) resolve(path string) *node {
	cur := n
	for path != "" {
		head, rest, _ := strings.Cut(path, Separator)
		path = rest
		if head == "" {
			continue
		}
		cur = cur.child(head)
	}
	return cur
}

// child returns the named child of n, creating it on first use.
func (n *node) child(name string) *node {
	n.mu.Lock()
	c, ok := n.children[name]
	n.mu.Unlock()
	if ok {
		return c
	}

	// Creation computes the child's pipeline, so it must not interleave
	// with a middleware change above it.
	n.tree.wareMu.Lock()
	defer n.tree.wareMu.Unlock()

	wares := n.effectiveWares()

	n.mu.Lock()
	defer n.mu.Unlock()
	if c, ok := n.children[name]; ok {
		return c
	}

	c = newNode(n.tree, n, name)
	c.pipeline = compose(wares, c.deliver)
	n.children[name] = c
	n.tree.stats.nodes.Add(1)

	n.tree.logger.Debug("topic created", logger.Topic(c.path))
	return c
}

// childNodes returns a snapshot of the children. Callers must hold n.mu.
func (n *node) childNodes() []*node {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	return out
}

func (n *node) childNames() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	names := make([]string, 0, len(n.children))
	for name := range n.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// nextMeta stamps a new publish on n.
func (n *node) nextMeta(mode Mode) Meta {
	return Meta{
		Seq:    n.seq.Add(1),
		Origin: n.path,
		Path:   n.path,
		Mode:   mode,
	}
}

func (n *node) currentPipeline() Next {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pipeline
}
