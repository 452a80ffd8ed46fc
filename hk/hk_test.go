// Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
package hk_test

import (
	"time"

	"github.com/basislabs/basis/hk"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Housekeeper", func() {
	It("reschedules a func at the interval it returns", func() {
		calls := make(chan struct{}, 8)
		hk.Reg("periodic"+hk.NameSuffix, func() time.Duration {
			calls <- struct{}{}
			return 10 * time.Millisecond
		}, time.Millisecond)

		Eventually(calls, time.Second).Should(Receive())
		Eventually(calls, time.Second).Should(Receive())

		hk.Unreg("periodic" + hk.NameSuffix)
	})

	It("stops rescheduling once the func returns UnregInterval", func() {
		calls := make(chan struct{}, 8)
		hk.Reg("once"+hk.NameSuffix, func() time.Duration {
			calls <- struct{}{}
			return hk.UnregInterval
		}, time.Millisecond)

		Eventually(calls, time.Second).Should(Receive())
		Consistently(calls, 50*time.Millisecond).ShouldNot(Receive())
	})

	It("re-registering the same name replaces the old entry", func() {
		first := make(chan struct{}, 8)
		second := make(chan struct{}, 8)
		hk.Reg("replace"+hk.NameSuffix, func() time.Duration {
			first <- struct{}{}
			return time.Hour
		}, time.Millisecond)
		hk.Reg("replace"+hk.NameSuffix, func() time.Duration {
			second <- struct{}{}
			return time.Hour
		}, time.Millisecond)

		Eventually(second, time.Second).Should(Receive())
		Consistently(first, 50*time.Millisecond).ShouldNot(Receive())

		hk.Unreg("replace" + hk.NameSuffix)
	})
})
