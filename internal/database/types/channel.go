package types

import "time"

// Channel represents one team communication channel tracked by the system.
// Rows are owned by the (external) channel administration surface; this
// repository only reads them.
type Channel struct {
	ID          string    `bun:",pk"                   json:"id"`
	DisplayName string    `bun:",notnull"              json:"displayName"`
	IsActive    bool      `bun:",notnull,default:true" json:"isActive"`
	CreatedAt   time.Time `bun:",notnull"              json:"createdAt"`
}
