package utilities

import (
	"os"
	"strconv"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/segmentio/ksuid"
)

// NewKSUID generates a new globally unique KSUID string. Used for
// per-request correlation ids.
func NewKSUID() string {
	return ksuid.New().String()
}

var (
	nodeOnce sync.Once
	node     *snowflake.Node
)

// NewSnowflakeID generates a snowflake ID as int64 using a node ID from
// the environment variable SNOWFLAKE_NODE (default 1). Record ids that are
// generated app-side (habits, completions) come from here so that the
// postgres and memory stores share the same id semantics.
func NewSnowflakeID() int64 {
	nodeOnce.Do(func() {
		nodeID := int64(1)
		if v := os.Getenv("SNOWFLAKE_NODE"); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				nodeID = n
			}
		}
		n, err := snowflake.NewNode(nodeID)
		if err != nil {
			// node ids outside [0,1023] are a deploy misconfiguration;
			// fall back to node 0 rather than failing id generation
			n, _ = snowflake.NewNode(0)
		}
		node = n
	})
	return node.Generate().Int64()
}
