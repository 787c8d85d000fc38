package room

import "testing"

func TestRegistryAllocIDReusesFreedSlot(t *testing.T) {
	reg := NewRegistry(nil, nil)
	defer reg.Close()

	r1, err := reg.CreateRoom(false, false, false)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	id1 := r1.ID()
	reg.Remove(id1)

	r2, err := reg.CreateRoom(false, false, false)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if r2.ID() != id1 {
		t.Fatalf("expected freed id %d to be reused, got %d", id1, r2.ID())
	}
}

func TestRegistryLookupByCode(t *testing.T) {
	reg := NewRegistry(nil, nil)
	defer reg.Close()

	r, err := reg.CreateRoom(false, false, false)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if got := reg.LookupByCode(r.Code()); got != r {
		t.Fatalf("LookupByCode did not return the created room")
	}
	if got := reg.LookupByCode("ZZZZ"); got != nil {
		t.Fatalf("LookupByCode should miss on an unused code")
	}
}

func TestRegistryCapacity(t *testing.T) {
	reg := NewRegistry(nil, nil)
	defer reg.Close()

	for i := 0; i < MaxRooms; i++ {
		if _, err := reg.CreateRoom(false, false, false); err != nil {
			t.Fatalf("CreateRoom %d: %v", i, err)
		}
	}
	if _, err := reg.CreateRoom(false, false, false); err == nil {
		t.Fatalf("expected capacity error once MaxRooms is reached")
	}
}

func TestRegistryRemoveIsIdempotent(t *testing.T) {
	reg := NewRegistry(nil, nil)
	defer reg.Close()

	r, _ := reg.CreateRoom(false, false, false)
	reg.Remove(r.ID())
	reg.Remove(r.ID())
	if reg.Count() != 0 {
		t.Fatalf("expected 0 rooms after removal, got %d", reg.Count())
	}
}
