package platform

// SetupTestDispatch installs a synchronous dispatch function for testing.
// The cleanup function should be testing.T.Cleanup or equivalent; it
// registers a teardown that unregisters the dispatch function.
//
//	platform.SetupTestDispatch(t.Cleanup)
func SetupTestDispatch(cleanup func(func())) {
	RegisterDispatch(func(cb func()) { cb() })
	cleanup(func() { RegisterDispatch(nil) })
}
