// Package models holds the GORM persistence models backing the domain
// entities. Domain types stay free of ORM tags; these models carry the
// table mappings and each one converts to and from its domain
// counterpart via ToDomain/FromDomain mappers on the repository side.
//
// Files:
//   - channel.go: channel connection models (ConnectionModel)
//   - sync.go: sync models (SyncJobModel, RunLogModel, OrderRecordModel,
//     ProductMappingModel, SyncLogModel)
package models
