// Package graph defines the scene node tree: per-node transform, color,
// output class and mesh reference, owned ordered children, and a
// non-owning parent link.
//
// Structure changes only through Attach and Remove, which keep parent and
// children consistent and reject cycles and shared ownership. The tree is
// not synchronized; a single owner mutates it.
//
// Two resolution rules answer "what is this value in world context".
// WorldTransform composes every transform from the node up to and
// including a boundary node. WorldColor, WorldOutputClass and
// WorldMaterialIndex do not compose: they return the boundary node's own
// value. In both cases a nil boundary, or one that is not an ancestor,
// means the root.
package graph
