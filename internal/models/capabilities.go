package models

// Capability — что доступно роли в приложении. Единая таблица вместо
// разрозненных проверок роли по хендлерам: из неё строятся и меню, и
// набор экранов навигатора.
type Capability string

const (
	CapDashboard      Capability = "dashboard"
	CapTasks          Capability = "tasks"
	CapAttendance     Capability = "attendance"
	CapAdmissions     Capability = "admissions"
	CapManageTeachers Capability = "manage_teachers"
	CapSalary         Capability = "salary"
	CapHolidays       Capability = "holidays"
	CapChildRating    Capability = "child_rating"
	CapAuditExport    Capability = "audit_export"
)

var roleCapabilities = map[Role][]Capability{
	Admin: {
		CapDashboard, CapTasks, CapAttendance, CapAdmissions,
		CapManageTeachers, CapHolidays, CapAuditExport,
	},
	Teacher: {
		CapDashboard, CapTasks, CapAttendance, CapAdmissions, CapSalary,
	},
	Parent: {
		CapDashboard, CapTasks, CapChildRating,
	},
	Student: {
		CapDashboard, CapAttendance,
	},
}

// Capabilities возвращает набор возможностей роли. Для неизвестной роли —
// пусто: доступ закрыт, пока админ не подтвердит роль.
func Capabilities(r Role) []Capability {
	caps, ok := roleCapabilities[r]
	if !ok {
		return nil
	}
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}

func HasCapability(r Role, c Capability) bool {
	for _, got := range roleCapabilities[r] {
		if got == c {
			return true
		}
	}
	return false
}
