package models

// User is one row of the tenant-scoped customer directory. Looked up, never
// mutated, by the identity resolver.
type User struct {
	ID              int64   `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID        string  `gorm:"column:tenant_id;index:idx_users_tenant_user"`
	UserID          int64   `gorm:"column:user_id;index:idx_users_tenant_user"`
	Name            string  `gorm:"column:name"`
	Email           string  `gorm:"column:email"`
	Phone1          string  `gorm:"column:phone1"`
	Phone2          string  `gorm:"column:phone2"`
	BuyingCompanyID *string `gorm:"column:cimm_buying_company_id"`
	CompanyName     string  `gorm:"column:company_name"`
}

func (User) TableName() string { return "users" }

// Location is one tenant branch/warehouse. WarehouseCode is the join key the
// event tables reference as branch_id.
type Location struct {
	ID            int64  `gorm:"column:id;primaryKey;autoIncrement"`
	TenantID      string `gorm:"column:tenant_id;index"`
	WarehouseCode string `gorm:"column:warehouse_code"`
	DisplayName   string `gorm:"column:display_name"`
	City          string `gorm:"column:city"`
	State         string `gorm:"column:state"`
}

func (Location) TableName() string { return "locations" }
