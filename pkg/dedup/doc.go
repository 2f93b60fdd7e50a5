package dedup

// Two requests join the same broadcaster iff their fingerprints match AND
// the leader's entry is still present in the Table. An entry whose
// broadcaster closed with error stays joinable until RetireAfterDelay's
// window lapses, so a duplicate arriving in that window observes the same
// error; after it the entry is gone and a new arrival becomes its own
// leader.
