package idutil

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	once sync.Once
	node *snowflake.Node
)

// NextID returns a time-ordered unique id. Records created later always get a
// bigger id, so ordering by id is ordering by creation time.
func NextID() int64 {
	once.Do(func() {
		var err error
		node, err = snowflake.NewNode(0)
		if err != nil {
			panic(err)
		}
	})

	return node.Generate().Int64()
}
