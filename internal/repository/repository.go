// Package repository содержит долговременные хранилища состояний бюджета.
// Все реализации удовлетворяют budget.Repository; отсутствие состояния
// возвращается как (nil, nil).
package repository
