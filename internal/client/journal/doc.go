// Package journal holds the client side of entry editing.
//
// Editor is the per-session state machine that keeps a local edit buffer in
// step with the server's canonical entry, shared draft and per-session
// autosave:
//
//	closed --Open--> read --StartEditing--> editing
//	editing --Save|Back|Discard|Delete--> closed
//	closed --NewEntry--> editing
//
// A session in read mode shows the shared draft when there is one. A session
// that is editing prefers its own autosave. While editing, every change
// re-arms a debounce timer; when it fires and the buffer differs from the
// baseline captured at edit start, the buffer is written to the session's
// autosave.
//
// The view helpers in this package (rows, tag filter, calendar marks,
// dashboard) are pure functions over entry snapshots.
package journal
