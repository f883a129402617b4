// Package frontend contains the objects and logic to define rank-1 constraint
// systems (R1CS) shared by all gadgets in this module.
//
// A System is synthesized either in Setup mode (circuit shape only, no
// witness) or in Proving mode (concrete witness values flow through every
// allocation). Gadgets are written once against the System API and never
// branch on the mode themselves; the few operations that need concrete values
// (allocation, hints, evaluation) branch internally.
package frontend
