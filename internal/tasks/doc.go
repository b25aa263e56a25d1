// package tasks implements the cross-provider operations that sit above the
// service catalogs.
//
// The core abstraction is SharedEngine, which intersects both providers'
// libraries by normalized title to produce the shared playlist list, and can
// export the results to disk. Operations emit progress updates via channels
// for non-blocking status reporting to CLI/UI layers.
package tasks
