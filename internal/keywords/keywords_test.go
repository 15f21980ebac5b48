package keywords

import (
	"reflect"
	"testing"
)

func TestSystem_ScopedHyphenated(t *testing.T) {
	got := System("@capacitor-community/camera-preview")
	want := []string{
		"capacitor-community", "capacitor", "community",
		"camera-preview", "camera", "preview",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("System = %v, want %v", got, want)
	}
}

func TestSystem_ScopedPlain(t *testing.T) {
	got := System("@capacitor/camera")
	want := []string{"capacitor", "camera"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("System = %v, want %v", got, want)
	}
}

func TestSystem_Unscoped(t *testing.T) {
	got := System("cordova-plugin-device")
	want := []string{"cordova-plugin-device", "cordova", "plugin", "device"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("System = %v, want %v", got, want)
	}
}

func TestSystem_KeepsDuplicates(t *testing.T) {
	got := System("@camera/camera")
	want := []string{"camera", "camera"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("System = %v, want %v", got, want)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("photo, Image ,photo,  ")
	want := []string{"photo", "image"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalize_Empty(t *testing.T) {
	got := Normalize("")
	if got == nil || len(got) != 0 {
		t.Errorf("Normalize(\"\") = %v, want empty non-nil list", got)
	}
}
