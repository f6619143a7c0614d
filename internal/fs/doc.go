// Package fs covers the small files kept next to the memory-mapped data
// files: the manifest, delete-vector rows and locator logs. Data files go
// through package mmap instead.
//
// Production code uses [Default]. Tests wrap it in an [Injector] to fail
// chosen operations on files whose name contains a pattern:
//
//	in := fs.NewInjector(nil)
//	in.Inject(".dv", fs.Fault{On: fs.OpRename})
package fs
