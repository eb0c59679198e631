package basket

import (
	"testing"

	"github.com/MorseWayne/storefront/internal/domain"
	"github.com/MorseWayne/storefront/internal/storage"
)

func TestWishlist_Toggle(t *testing.T) {
	st := storage.NewMemoryStorage()
	w := NewWishlist(st, nil)
	p := testProduct("p1", 99)
	v := &domain.Variant{ID: "red", Price: floatPtr(79)}

	added, s := w.Toggle(p, v)
	if !added || len(s.Items) != 1 || s.Items[0].Quantity != 1 || s.Items[0].Price != 79 {
		t.Fatalf("first toggle: added=%v state=%+v", added, s)
	}
	if !w.Contains("p1", "red") || w.Contains("p1", "") {
		t.Fatal("Contains should match only the exact identity")
	}

	added, s = w.Toggle(p, nil)
	if !added || len(s.Items) != 2 {
		t.Fatalf("toggle of base product: added=%v items=%d", added, len(s.Items))
	}

	added, s = w.Toggle(p, v)
	if added || len(s.Items) != 1 || s.Items[0].VariantID != "" {
		t.Fatalf("second toggle: added=%v state=%+v", added, s)
	}

	raw, err := st.Get(storage.KeyWishlist)
	if err != nil {
		t.Fatalf("wishlist not persisted: %v", err)
	}
	if got := NewWishlist(st, nil).State(); len(got.Items) != 1 {
		t.Fatalf("reloaded wishlist has %d items, stored %s", len(got.Items), raw)
	}
}

func TestWishlist_PersistedShapeHasOnlyItems(t *testing.T) {
	st := storage.NewMemoryStorage()
	w := NewWishlist(st, nil)
	w.Clear()

	raw, _ := st.Get(storage.KeyWishlist)
	if raw != `{"items":[]}` {
		t.Fatalf("persisted wishlist = %s", raw)
	}
}

func TestWishlist_RemoveAndClear(t *testing.T) {
	w := NewWishlist(storage.NewMemoryStorage(), nil)
	w.Toggle(testProduct("a", 1), nil)
	w.Toggle(testProduct("b", 2), nil)

	if s := w.Remove("a", ""); len(s.Items) != 1 || s.Items[0].ProductID != "b" {
		t.Fatalf("after remove: %+v", s)
	}
	if s := w.Remove("a", ""); len(s.Items) != 1 {
		t.Fatalf("second remove should be a no-op: %+v", s)
	}
	if s := w.Clear(); len(s.Items) != 0 {
		t.Fatalf("after clear: %+v", s)
	}
}

func TestWishlist_HydrationForcesQuantityOne(t *testing.T) {
	st := storage.NewMemoryStorage()
	_ = st.Set(storage.KeyWishlist, `{"items":[{"productId":"p1","name":"A","price":10,"quantity":4}]}`)

	s := NewWishlist(st, nil).State()
	if len(s.Items) != 1 || s.Items[0].Quantity != 1 {
		t.Fatalf("hydrated wishlist = %+v", s)
	}
}

func TestWishlist_ObserverSeesToggle(t *testing.T) {
	w := NewWishlist(storage.NewMemoryStorage(), nil)
	var actions []string
	w.AddObserver(ObserverFunc(func(ev ChangeEvent) {
		if ev.Basket != NameWishlist {
			t.Errorf("basket = %q", ev.Basket)
		}
		actions = append(actions, ev.Action)
	}))

	p := testProduct("p1", 5)
	w.Toggle(p, nil)
	w.Toggle(p, nil)

	if len(actions) != 2 || actions[0] != "add" || actions[1] != "remove" {
		t.Fatalf("actions = %v", actions)
	}
}
