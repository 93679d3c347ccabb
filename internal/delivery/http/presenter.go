package http

import (
	"sync"

	"github.com/oziev02/CommentThread/internal/domain"
)

// FocusPresenter хранит текущую цель прокрутки и подсветки,
// которую слой представления забирает через GET /thread/focus
type FocusPresenter struct {
	mu     sync.RWMutex
	target *domain.RevealTarget
}

// NewFocusPresenter создает новый экземпляр FocusPresenter
func NewFocusPresenter() *FocusPresenter {
	return &FocusPresenter{}
}

// Reveal запоминает цель
func (p *FocusPresenter) Reveal(target domain.RevealTarget) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.target = &target
}

// Conceal снимает подсветку, если цель не сменилась
func (p *FocusPresenter) Conceal(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.target != nil && p.target.ID == id {
		p.target = nil
	}
}

// Current возвращает текущую цель
func (p *FocusPresenter) Current() (domain.RevealTarget, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.target == nil {
		return domain.RevealTarget{}, false
	}
	return *p.target, true
}
