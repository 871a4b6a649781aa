package managers

import (
	"reflect"
	"sort"
	"testing"
)

func TestItemManager_Get(t *testing.T) {
	manager := NewItemManager[int]()
	manager.Register("item1", 1)
	manager.Register("item2", 2)

	if item := manager.Get("item1"); item != 1 {
		t.Errorf("Get(item1) = %d, want 1", item)
	}
	if item := manager.Get("item2"); item != 2 {
		t.Errorf("Get(item2) = %d, want 2", item)
	}
	if item := manager.Get("item3"); item != 0 {
		t.Errorf("Get(item3) = %d, want 0 (zero value)", item)
	}
}

func TestItemManager_Items(t *testing.T) {
	manager := NewItemManager[int]()
	manager.Register("item1", 1)
	manager.Register("item2", 2)
	manager.Register("item3", 3)

	items := manager.Items()
	sort.Ints(items)
	expectedItems := []int{1, 2, 3}

	if !reflect.DeepEqual(items, expectedItems) {
		t.Errorf("Items() = %v, want %v", items, expectedItems)
	}
}

func TestItemManager_Items_Empty(t *testing.T) {
	manager := NewItemManager[int]()

	items := manager.Items()
	if len(items) != 0 {
		t.Errorf("Items() = %v, want empty", items)
	}
}

func TestItemManager_Items_AfterUnregister(t *testing.T) {
	manager := NewItemManager[int]()
	manager.Register("item1", 1)
	manager.Register("item2", 2)
	manager.Register("item3", 3)

	manager.Unregister("item2")

	items := manager.Items()
	sort.Ints(items)
	expectedItems := []int{1, 3}

	if !reflect.DeepEqual(items, expectedItems) {
		t.Errorf("Items() = %v, want %v", items, expectedItems)
	}
}
