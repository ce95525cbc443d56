package sto

import "github.com/xraph/sto/id"

// ID is the primary identifier type for all offering entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
