// Package topology defines the block document consumed by the mesher.
// A Document holds vertices, edges, quads and hexahedra with dense integer
// ids, together with discretization laws, propagations, named groups and
// CAD associations. Adjacency is derived and kept in sync by the builder.
package topology
