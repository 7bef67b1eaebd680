// Package models holds the GORM persistence models and their mappers. Domain
// entities stay free of ORM tags; every aggregate has a model struct here
// that owns the table mapping and converts to and from the domain type.
//
// One file per bounded context: ingest.go (ProcessTask, RowDetail,
// ErrorOrder), trade.go (Order, OrderItem), catalog.go (Product) and
// partner.go (Customer), with the shared embedding structs in base.go.
package models
