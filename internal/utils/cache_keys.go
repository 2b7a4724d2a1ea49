package utils

import "strconv"

// UsersListCachePrefix covers every cached listing page; ingestion drops it.
const UsersListCachePrefix = "users:list:"

func BuildUsersListCacheKey(page, pageSize int) string {
	return UsersListCachePrefix + "v1:page=" + strconv.Itoa(page) +
		":pageSize=" + strconv.Itoa(pageSize)
}
