package mongo

var NewAuditStorageForTest = newAuditStorage
