package service

// AssertOwner 资源所有者校验，所有修改类操作（更新、取消、完成、删除）前调用
// 读操作不做所有权限制
func AssertOwner(ownerID, requesterID string) error {
	if requesterID == "" || ownerID != requesterID {
		return ErrForbidden
	}
	return nil
}
