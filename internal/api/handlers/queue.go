package handlers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
)

// QueueStatusProvider reports waiting players per stake.
type QueueStatusProvider interface {
	QueueStatus() map[int64]int
}

type stakeBucket struct {
	Stake   int64 `json:"stake"`
	Waiting int   `json:"waiting"`
}

// GetQueueStatus lists how many players are waiting at each stake.
func GetQueueStatus(q QueueStatusProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		depths := q.QueueStatus()
		buckets := make([]stakeBucket, 0, len(depths))
		total := 0
		for stake, n := range depths {
			buckets = append(buckets, stakeBucket{Stake: stake, Waiting: n})
			total += n
		}
		sort.Slice(buckets, func(i, j int) bool { return buckets[i].Stake < buckets[j].Stake })

		c.JSON(http.StatusOK, gin.H{"buckets": buckets, "total_waiting": total})
	}
}
