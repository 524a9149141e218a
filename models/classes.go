// Package models - canonical behavior classes and model vocabularies.
package models

import (
	"strings"
)

// Class is one canonical behavior class.
type Class struct {
	// ID is the stable integer identifier reported with detections.
	ID int `json:"id" yaml:"id"`
	// Name is the human-readable label.
	Name string `json:"name" yaml:"name"`
}

// Canonical class names.
const (
	ClassSmoke  = "Smoke"
	ClassPhone  = "Phone"
	ClassDrink  = "Drink"
	ClassDriver = "Driver"
)

// Canonical classes, in ID order.
var (
	Smoke  = Class{ID: 0, Name: ClassSmoke}
	Phone  = Class{ID: 1, Name: ClassPhone}
	Drink  = Class{ID: 2, Name: ClassDrink}
	Driver = Class{ID: 3, Name: ClassDriver}
)

// CanonicalClasses is the behavior taxonomy reported regardless of the
// underlying model's vocabulary.
var CanonicalClasses = []Class{Smoke, Phone, Drink, Driver}

// ClassByName returns the canonical class with the given name. Matching is
// case-insensitive.
func ClassByName(name string) (Class, bool) {
	for _, c := range CanonicalClasses {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Class{}, false
}

// IsPersonLabel reports whether a raw label denotes a person. Generic models
// say "person", specialized ones may say "Driver".
func IsPersonLabel(label string) bool {
	return strings.EqualFold(label, "person") || strings.EqualFold(label, ClassDriver)
}

// YOLOClasses is the 80 class COCO vocabulary in the zero-based order YOLO
// models index into.
var YOLOClasses = []string{
	"person", "bicycle", "car", "motorcycle", "airplane", "bus", "train", "truck", "boat",
	"traffic light", "fire hydrant", "stop sign", "parking meter", "bench", "bird", "cat", "dog", "horse",
	"sheep", "cow", "elephant", "bear", "zebra", "giraffe", "backpack", "umbrella", "handbag", "tie",
	"suitcase", "frisbee", "skis", "snowboard", "sports ball", "kite", "baseball bat", "baseball glove",
	"skateboard", "surfboard", "tennis racket", "bottle", "wine glass", "cup", "fork", "knife", "spoon",
	"bowl", "banana", "apple", "sandwich", "orange", "broccoli", "carrot", "hot dog", "pizza", "donut",
	"cake", "chair", "couch", "potted plant", "bed", "dining table", "toilet", "tv", "laptop", "mouse",
	"remote", "keyboard", "cell phone", "microwave", "oven", "toaster", "sink", "refrigerator", "book",
	"clock", "vase", "scissors", "teddy bear", "hair drier", "toothbrush",
}

// BehaviorClasses is the vocabulary of a specialized behavior model.
var BehaviorClasses = []string{ClassSmoke, ClassPhone, ClassDrink}
