// Package drawer exports an editor scene. SVGDrawer and PNGDrawer draw the
// rendered frames as the editor shows them, DOTDrawer writes the step graph
// for Graphviz and ParseDOT reads one back into a pipeline.
package drawer
