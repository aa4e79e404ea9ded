// Package types defines the Store and Database interfaces, write options,
// configuration, and the errors shared by the lattice persistence engine.
//
// A Store persists whole object graphs. Every relation between two entity
// types is kept in one junction table holding the two primary keys as text,
// so no entity table carries a foreign key.
package types
