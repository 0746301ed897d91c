package models

import (
	"encoding/json"
	"testing"
)

func TestProfile_Merge(t *testing.T) {
	p := Profile{"id": 1, "name": "A", "profile_image": "x.png"}
	merged := p.Merge(Profile{"profile_image": "y.png"})

	if got := merged["name"]; got != "A" {
		t.Fatalf("слияние потеряло name: %v", got)
	}
	if got := merged.ProfileImage(); got != "y.png" {
		t.Fatalf("ожидали y.png, получили %q", got)
	}
	// исходный профиль не трогаем
	if got := p.ProfileImage(); got != "x.png" {
		t.Fatalf("Merge не должен мутировать исходник: %q", got)
	}
}

func TestProfile_IDAfterJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(Profile{"id": 7, "role_name": "teacher"})
	if err != nil {
		t.Fatal(err)
	}
	var p Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatal(err)
	}
	if got := p.ID(); got != 7 {
		t.Fatalf("после JSON-раунда ожидали id=7, получили %d", got)
	}
	if got := p.RoleName(); got != Teacher {
		t.Fatalf("ожидали роль teacher, получили %q", got)
	}
}

func TestCapabilities_PerRole(t *testing.T) {
	t.Run("admin_can_export", func(t *testing.T) {
		if !HasCapability(Admin, CapAuditExport) {
			t.Fatal("админ должен иметь доступ к экспорту журнала")
		}
	})
	t.Run("parent_cannot_manage_teachers", func(t *testing.T) {
		if HasCapability(Parent, CapManageTeachers) {
			t.Fatal("родителю недоступно управление учителями")
		}
	})
	t.Run("unknown_role_empty", func(t *testing.T) {
		if caps := Capabilities(Role("guest")); len(caps) != 0 {
			t.Fatalf("у неизвестной роли не должно быть возможностей: %v", caps)
		}
	})
	t.Run("copy_is_defensive", func(t *testing.T) {
		caps := Capabilities(Teacher)
		caps[0] = Capability("mutated")
		if Capabilities(Teacher)[0] == Capability("mutated") {
			t.Fatal("Capabilities должна возвращать копию")
		}
	})
}
