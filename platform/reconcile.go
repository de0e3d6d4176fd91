package platform

// Reconcile checks the memory the tree declares against the requested size.
// The tree is authoritative: when it declares at least the requested amount,
// its size is the one to publish.
func Reconcile(effective, requested uint64) (uint64, error) {
	if effective < requested {
		return 0, &InsufficientMemoryError{
			Effective: effective,
			Requested: requested,
		}
	}

	return effective, nil
}
