package tenant

// PrefixKey namespaces a cache key per store.
func PrefixKey(storeID, key string) string {
	if storeID == "" {
		return key
	}
	return "store:" + storeID + ":" + key
}
