package utilities

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string.
// Used for request ids and saga run ids.
func NewKSUID() string {
	return ksuid.New().String()
}

// IDGenerator hands out int64 snowflake ids for stored entities.
// A single node is safe for concurrent use.
type IDGenerator struct {
	node *snowflake.Node
}

// NewIDGenerator builds a generator for the given node id (0..1023).
func NewIDGenerator(nodeID int64) (*IDGenerator, error) {
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		return nil, err
	}
	return &IDGenerator{node: node}, nil
}

// Next returns the next id.
func (g *IDGenerator) Next() int64 {
	return g.node.Generate().Int64()
}

// NodeFromEnv reads SNOWFLAKE_NODE, defaulting to node 1 when unset or invalid.
func NodeFromEnv() int64 {
	nodeID, err := strconv.ParseInt(os.Getenv("SNOWFLAKE_NODE"), 10, 64)
	if err != nil || nodeID < 0 || nodeID > 1023 {
		return 1
	}
	return nodeID
}
