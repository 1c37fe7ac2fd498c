package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
	"gopkg.in/yaml.v3"

	"github.com/kode4food/pilot/pkg/api"
	"github.com/kode4food/pilot/pkg/log"

	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
)

// Catalog loads flow definitions and the behavior description from a blob
// bucket. Files are read on every call, so edits to the bucket are picked
// up by the next run
type Catalog struct {
	bucket *blob.Bucket
}

const (
	LayersDir    = "layers/"
	FlowPrefix   = LayersDir + "flow-"
	FlowSuffix   = ".yaml"
	BehaviorFile = LayersDir + "behavior.yaml"
)

var (
	ErrFlowNotFound     = errors.New("flow not found")
	ErrInvalidFlow      = errors.New("invalid flow definition")
	ErrBehaviorNotFound = errors.New("behavior description not found")
	ErrInvalidBehavior  = errors.New("invalid behavior description")
	ErrFileNotFound     = errors.New("catalog file not found")
)

// Open opens the bucket at url (file://, mem://, s3://, gs://, azblob://)
// and returns a Catalog reading from it
func Open(ctx context.Context, url string) (*Catalog, error) {
	bucket, err := blob.OpenBucket(ctx, url)
	if err != nil {
		return nil, err
	}
	return New(bucket), nil
}

// New returns a Catalog reading from an already opened bucket
func New(bucket *blob.Bucket) *Catalog {
	return &Catalog{bucket: bucket}
}

// Close releases the underlying bucket
func (c *Catalog) Close() error {
	return c.bucket.Close()
}

// Resolve loads the flow definition with the given name. It returns an error
// wrapping ErrFlowNotFound when no such flow exists
func (c *Catalog) Resolve(
	ctx context.Context, name api.FlowName,
) (*api.FlowDefinition, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, name)
	}

	key := FlowKey(name)
	data, err := c.Read(ctx, key)
	if errors.Is(err, ErrFileNotFound) {
		slog.Warn("Flow file not found",
			log.Flow(name),
			slog.String("key", key))
		return nil, fmt.Errorf("%w: %s", ErrFlowNotFound, name)
	}
	if err != nil {
		return nil, err
	}

	var fl api.FlowDefinition
	if err := yaml.Unmarshal(data, &fl); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFlow, name, err)
	}
	if fl.Name == "" {
		fl.Name = name
	}

	slog.Debug("Flow loaded",
		log.Flow(name),
		slog.Int("steps_count", len(fl.Steps)))
	return &fl, nil
}

// ListFlows returns the names of all flows in the catalog, sorted
func (c *Catalog) ListFlows(ctx context.Context) ([]api.FlowName, error) {
	iter := c.bucket.List(&blob.ListOptions{
		Prefix:    FlowPrefix,
		Delimiter: "/",
	})

	res := []api.FlowName{}
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if obj.IsDir || !strings.HasSuffix(obj.Key, FlowSuffix) {
			continue
		}
		name := strings.TrimSuffix(
			strings.TrimPrefix(obj.Key, FlowPrefix), FlowSuffix,
		)
		if name != "" {
			res = append(res, api.FlowName(name))
		}
	}
	slices.Sort(res)
	return res, nil
}

// LoadBehavior reads and parses the behavior description
func (c *Catalog) LoadBehavior(ctx context.Context) (*api.Behavior, error) {
	data, err := c.Read(ctx, BehaviorFile)
	if errors.Is(err, ErrFileNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrBehaviorNotFound, BehaviorFile)
	}
	if err != nil {
		return nil, err
	}

	var b api.Behavior
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBehavior, err)
	}
	return &b, nil
}

// ListAgents returns the agent roster in declared order
func (c *Catalog) ListAgents(ctx context.Context) ([]api.AgentID, error) {
	b, err := c.LoadBehavior(ctx)
	if err != nil {
		return nil, err
	}
	return b.AgentIDs(), nil
}

// LoadAgentBindings returns the task to agent mapping used to annotate step
// results
func (c *Catalog) LoadAgentBindings(
	ctx context.Context,
) (map[api.TaskID]api.AgentID, error) {
	b, err := c.LoadBehavior(ctx)
	if err != nil {
		return nil, err
	}
	return b.Bindings(), nil
}

// Read returns the raw content stored under key. It returns an error
// wrapping ErrFileNotFound when the key does not exist
func (c *Catalog) Read(ctx context.Context, key string) ([]byte, error) {
	data, err := c.bucket.ReadAll(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, key)
		}
		return nil, err
	}
	return data, nil
}

// FlowKey returns the bucket key holding the named flow
func FlowKey(name api.FlowName) string {
	return FlowPrefix + string(name) + FlowSuffix
}
