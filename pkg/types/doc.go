// Package types defines the ontology data model (things, connections,
// events, knowledge, groups, users), the Provider contract that every
// storage backend implements, and the closed error taxonomy shared by
// adapters and services.
package types
